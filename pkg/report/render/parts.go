package render

import (
	"encoding/xml"
	"strings"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
)

// PartKind classifies a Part.
type PartKind int

const (
	// PartXML is markup copied through unchanged.
	PartXML PartKind = iota
	// PartText is literal run text.
	PartText
	// PartTag is a template tag inside run text.
	PartTag
)

// Part is one unit of a split template: a raw token, a run of literal text
// or a tag.
type Part struct {
	Kind  PartKind
	Token xml.Token
	// Value is the literal text for PartText and the tag body, without
	// delimiters, for PartTag.
	Value string
}

// Split breaks a normalized stream into parts. Only text inside <w:t>
// elements is scanned for tags.
func Split(s ooxml.Stream) []Part {
	parts := make([]Part, 0, len(s))
	inText := false

	for _, tok := range s {
		switch {
		case ooxml.IsStart(tok, "t"):
			inText = true
		case ooxml.IsEnd(tok, "t"):
			inText = false
		}

		cd, isText := tok.(xml.CharData)
		if !inText || !isText {
			parts = append(parts, Part{Kind: PartXML, Token: tok})
			continue
		}
		parts = append(parts, splitText(string(cd))...)
	}
	return parts
}

func splitText(text string) []Part {
	var parts []Part
	for text != "" {
		open := strings.IndexRune(text, OpenDelim)
		if open < 0 {
			parts = append(parts, Part{Kind: PartText, Value: text})
			break
		}
		end := strings.IndexRune(text[open:], CloseDelim)
		if end < 0 {
			parts = append(parts, Part{Kind: PartText, Value: text})
			break
		}
		end += open

		if open > 0 {
			parts = append(parts, Part{Kind: PartText, Value: text[:open]})
		}
		parts = append(parts, Part{Kind: PartTag, Value: text[open+1 : end]})
		text = text[end+1:]
	}
	return parts
}
