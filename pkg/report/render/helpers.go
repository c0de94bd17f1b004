package render

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
)

const (
	// OpenDelim starts a tag.
	OpenDelim = '{'
	// CloseDelim ends a tag.
	CloseDelim = '}'
)

var spaceAttr = xml.Name{Space: "xml", Local: "space"}

// textSlot points at a <w:t> start token and its character data.
type textSlot struct {
	start int
	text  int
}

// NormalizeTags returns a copy of s where every <w:t> holds exactly one
// character data token and every tag lies entirely inside one <w:t>.
// A tag split across runs is moved into the run where it starts, keeping
// that run's formatting. Tags never cross paragraph boundaries.
func NormalizeTags(s ooxml.Stream) (ooxml.Stream, error) {
	out, slots := compactText(s)

	var order []int
	groups := make(map[int][]textSlot)
	for _, sl := range slots {
		if _, seen := groups[sl.paragraph]; !seen {
			order = append(order, sl.paragraph)
		}
		groups[sl.paragraph] = append(groups[sl.paragraph], sl.textSlot)
	}

	for _, p := range order {
		if err := mergeSplitTags(out, groups[p]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type paragraphSlot struct {
	textSlot
	paragraph int
}

// compactText rebuilds the stream so that each <w:t> carries a single
// character data token, and reports where those tokens are.
func compactText(s ooxml.Stream) (ooxml.Stream, []paragraphSlot) {
	out := make(ooxml.Stream, 0, len(s))
	var slots []paragraphSlot
	var paragraphs []int

	for i := 0; i < len(s); i++ {
		tok := s[i]
		switch {
		case ooxml.IsStart(tok, "p"):
			paragraphs = append(paragraphs, len(out))
		case ooxml.IsEnd(tok, "p"):
			if len(paragraphs) > 0 {
				paragraphs = paragraphs[:len(paragraphs)-1]
			}
		case ooxml.IsStart(tok, "t"):
			var text strings.Builder
			j := i + 1
			for ; j < len(s) && !ooxml.IsEnd(s[j], "t"); j++ {
				if cd, ok := s[j].(xml.CharData); ok {
					text.Write(cd)
				}
			}

			para := -1
			if len(paragraphs) > 0 {
				para = paragraphs[len(paragraphs)-1]
			}
			slots = append(slots, paragraphSlot{
				textSlot:  textSlot{start: len(out), text: len(out) + 1},
				paragraph: para,
			})

			out = append(out, tok, xml.CharData(text.String()))
			if j < len(s) {
				out = append(out, s[j])
			}
			i = j
			continue
		}
		out = append(out, tok)
	}
	return out, slots
}

// mergeSplitTags reassigns the characters of one paragraph's text slots so
// that each tag belongs to the slot holding its opening delimiter.
func mergeSplitTags(s ooxml.Stream, group []textSlot) error {
	var full strings.Builder
	var owner []int
	for gi, sl := range group {
		txt := string(s[sl.text].(xml.CharData))
		full.WriteString(txt)
		for range len(txt) {
			owner = append(owner, gi)
		}
	}

	text := full.String()
	if !strings.ContainsRune(text, OpenDelim) {
		return nil
	}

	texts := make([]strings.Builder, len(group))
	touched := make([]bool, len(group))
	tagOwner, tagStart := -1, 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == OpenDelim && tagOwner >= 0:
			return fmt.Errorf("unclosed tag %q", text[tagStart:i])
		case c == OpenDelim:
			tagOwner, tagStart = owner[i], i
			touched[tagOwner] = true
		}

		if tagOwner >= 0 {
			texts[tagOwner].WriteByte(c)
			if owner[i] != tagOwner {
				touched[owner[i]] = true
			}
			if c == CloseDelim {
				tagOwner = -1
			}
			continue
		}
		texts[owner[i]].WriteByte(c)
	}

	if tagOwner >= 0 {
		return fmt.Errorf("unclosed tag %q", text[tagStart:])
	}

	for gi, sl := range group {
		if !touched[gi] {
			continue
		}
		s[sl.text] = xml.CharData(texts[gi].String())
		if start, ok := s[sl.start].(xml.StartElement); ok {
			s[sl.start] = ooxml.WithAttr(start, spaceAttr, "preserve")
		}
	}
	return nil
}
