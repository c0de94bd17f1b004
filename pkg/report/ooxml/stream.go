package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// WordNamespacePrefix is the prefix WordprocessingML elements carry.
const WordNamespacePrefix = "w"

// Stream is a flat sequence of raw XML tokens. Element names keep their
// source prefix in Name.Space.
type Stream []xml.Token

// Parse reads an XML part into a token stream. RawToken does not match
// element names, so nesting is checked here.
func Parse(data []byte) (Stream, error) {
	d := xml.NewDecoder(bytes.NewReader(data))

	var s Stream
	var open []xml.Name
	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			open = append(open, t.Name)
		case xml.EndElement:
			if len(open) == 0 || open[len(open)-1] != t.Name {
				return nil, fmt.Errorf("failed to parse XML: unexpected </%s>", QName(t.Name))
			}
			open = open[:len(open)-1]
		}
		s = append(s, xml.CopyToken(tok))
	}

	if len(open) > 0 {
		return nil, fmt.Errorf("failed to parse XML: unexpected EOF inside <%s>", QName(open[len(open)-1]))
	}
	return s, nil
}

// Bytes encodes the stream back to XML.
func (s Stream) Bytes() []byte {
	var buf bytes.Buffer
	Encode(&buf, s)
	return buf.Bytes()
}

// Encode writes tokens as XML. An element with no content is written in
// its self-closing form.
func Encode(buf *bytes.Buffer, toks []xml.Token) {
	for i := 0; i < len(toks); i++ {
		switch t := toks[i].(type) {
		case xml.StartElement:
			buf.WriteByte('<')
			buf.WriteString(QName(t.Name))
			for _, attr := range t.Attr {
				buf.WriteByte(' ')
				buf.WriteString(QName(attr.Name))
				buf.WriteString(`="`)
				EscapeAttr(buf, attr.Value)
				buf.WriteByte('"')
			}
			if i+1 < len(toks) {
				if end, ok := toks[i+1].(xml.EndElement); ok && end.Name == t.Name {
					buf.WriteString("/>")
					i++
					continue
				}
			}
			buf.WriteByte('>')
		case xml.EndElement:
			buf.WriteString("</")
			buf.WriteString(QName(t.Name))
			buf.WriteByte('>')
		case xml.CharData:
			EscapeText(buf, string(t))
		case xml.Comment:
			buf.WriteString("<!--")
			buf.Write(t)
			buf.WriteString("-->")
		case xml.ProcInst:
			buf.WriteString("<?")
			buf.WriteString(t.Target)
			if len(t.Inst) > 0 {
				buf.WriteByte(' ')
				buf.Write(t.Inst)
			}
			buf.WriteString("?>")
		case xml.Directive:
			buf.WriteString("<!")
			buf.Write(t)
			buf.WriteByte('>')
		}
	}
}

// QName renders a raw name as prefix:local.
func QName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// IsWord reports whether a raw name is the WordprocessingML element local.
func IsWord(n xml.Name, local string) bool {
	return n.Space == WordNamespacePrefix && n.Local == local
}

// IsStart reports whether tok opens the WordprocessingML element local.
func IsStart(tok xml.Token, local string) bool {
	t, ok := tok.(xml.StartElement)
	return ok && IsWord(t.Name, local)
}

// IsEnd reports whether tok closes the WordprocessingML element local.
func IsEnd(tok xml.Token, local string) bool {
	t, ok := tok.(xml.EndElement)
	return ok && IsWord(t.Name, local)
}

// WithAttr returns a copy of start with the named attribute set.
func WithAttr(start xml.StartElement, name xml.Name, value string) xml.StartElement {
	attrs := make([]xml.Attr, 0, len(start.Attr)+1)
	found := false
	for _, a := range start.Attr {
		if a.Name == name {
			a.Value = value
			found = true
		}
		attrs = append(attrs, a)
	}
	if !found {
		attrs = append(attrs, xml.Attr{Name: name, Value: value})
	}
	start.Attr = attrs
	return start
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

// EscapeText writes s escaped for element content.
func EscapeText(buf *bytes.Buffer, s string) {
	textEscaper.WriteString(buf, s)
}

// EscapeAttr writes s escaped for a double-quoted attribute value.
func EscapeAttr(buf *bytes.Buffer, s string) {
	attrEscaper.WriteString(buf, s)
}
