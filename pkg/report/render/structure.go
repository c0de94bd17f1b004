package render

import (
	"encoding/xml"
	"strings"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
)

// Span is the inclusive range between an element's start and end parts.
// Start is -1 when there is no such element.
type Span struct {
	Start int
	End   int
}

// Valid reports whether the span points at an element.
func (s Span) Valid() bool { return s.Start >= 0 }

var noSpan = Span{Start: -1, End: -1}

// Location describes where a tag sits in the document tree.
type Location struct {
	// Path holds the names of the open elements around the tag, outermost first.
	Path []xml.Name
	// Paragraph is the innermost <w:p> holding the tag.
	Paragraph Span
	// Row is the innermost <w:tr> holding the tag.
	Row Span
	// Cell is the innermost <w:tc> holding the tag.
	Cell Span
	// Table is the start index of the <w:tbl> that owns Row, or -1.
	Table int
	// Alone is true when the tag is the only non-blank content of Paragraph.
	Alone bool
}

// SamePath reports whether two locations have identical element paths.
func (l Location) SamePath(other Location) bool {
	if len(l.Path) != len(other.Path) {
		return false
	}
	for i := range l.Path {
		if l.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}

// Locate computes the Location of every tag part. Entries for other parts
// are left zero.
func Locate(parts []Part) []Location {
	ends := matchElements(parts)
	locs := make([]Location, len(parts))

	var stack []int
	for i, part := range parts {
		switch part.Kind {
		case PartXML:
			switch part.Token.(type) {
			case xml.StartElement:
				stack = append(stack, i)
			case xml.EndElement:
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
		case PartTag:
			locs[i] = locate(parts, ends, stack)
		}
	}

	alone := make(map[int]bool)
	for i, part := range parts {
		if part.Kind != PartTag || !locs[i].Paragraph.Valid() {
			continue
		}
		p := locs[i].Paragraph
		if _, done := alone[p.Start]; !done {
			alone[p.Start] = soleTag(parts, p)
		}
		locs[i].Alone = alone[p.Start]
	}
	return locs
}

func locate(parts []Part, ends map[int]int, stack []int) Location {
	loc := Location{Paragraph: noSpan, Row: noSpan, Cell: noSpan, Table: -1}
	loc.Path = make([]xml.Name, len(stack))

	rowDepth := -1
	for d, idx := range stack {
		name := parts[idx].Token.(xml.StartElement).Name
		loc.Path[d] = name
		switch {
		case ooxml.IsWord(name, "p"):
			loc.Paragraph = Span{Start: idx, End: ends[idx]}
		case ooxml.IsWord(name, "tr"):
			loc.Row = Span{Start: idx, End: ends[idx]}
			rowDepth = d
		case ooxml.IsWord(name, "tc"):
			loc.Cell = Span{Start: idx, End: ends[idx]}
		}
	}

	for d := rowDepth - 1; d >= 0; d-- {
		if ooxml.IsWord(loc.Path[d], "tbl") {
			loc.Table = stack[d]
			break
		}
	}
	return loc
}

// matchElements maps each start part index to its end part index.
func matchElements(parts []Part) map[int]int {
	ends := make(map[int]int)
	var stack []int
	for i, part := range parts {
		if part.Kind != PartXML {
			continue
		}
		switch part.Token.(type) {
		case xml.StartElement:
			stack = append(stack, i)
		case xml.EndElement:
			if len(stack) > 0 {
				ends[stack[len(stack)-1]] = i
				stack = stack[:len(stack)-1]
			}
		}
	}
	return ends
}

func soleTag(parts []Part, p Span) bool {
	tags := 0
	for i := p.Start; i <= p.End; i++ {
		switch parts[i].Kind {
		case PartTag:
			tags++
		case PartText:
			if strings.TrimSpace(parts[i].Value) != "" {
				return false
			}
		}
	}
	return tags == 1
}

// IsBlockStart reports whether part opens a paragraph or a table.
func IsBlockStart(part Part) bool {
	if part.Kind != PartXML {
		return false
	}
	return ooxml.IsStart(part.Token, "p") || ooxml.IsStart(part.Token, "tbl")
}
