package report

import (
	"bytes"
	"fmt"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
	"github.com/wisenergy/go-report/pkg/report/render"
)

// loopMode is how much of the document a section repeats.
type loopMode int

const (
	// inlineLoop repeats the content between two tags of one paragraph.
	inlineLoop loopMode = iota
	// rowLoop repeats every table row from the opening to the closing tag.
	// Tags kept in one cell loop within the cell instead.
	rowLoop
	// paragraphLoop repeats the paragraphs between two marker paragraphs
	// and drops the markers.
	paragraphLoop
	// rawLoop repeats the raw markup between two tags at the same depth.
	rawLoop
)

func (m loopMode) String() string {
	switch m {
	case inlineLoop:
		return "inline"
	case rowLoop:
		return "table row"
	case paragraphLoop:
		return "paragraph"
	case rawLoop:
		return "raw"
	default:
		return "unknown"
	}
}

// loop is a resolved section. Parts [start, end) belong to the loop; the
// body [bodyStart, bodyEnd) is rendered once per item and the rest is
// dropped.
type loop struct {
	tag       render.Tag
	mode      loopMode
	start     int
	bodyStart int
	bodyEnd   int
	end       int
	// fillsCell is set when the loop holds every paragraph of a table cell.
	fillsCell bool
	children  []*loop
}

// planLoops resolves every section to its repeated range and checks that
// nested sections stay inside their parent's body.
func planLoops(parts []render.Part, index []int, tags []render.Tag, pairs []int) (map[int]*loop, error) {
	locs := render.Locate(parts)

	root := &loop{bodyStart: 0, bodyEnd: len(parts), end: len(parts)}
	stack := []*loop{root}
	for k, tag := range tags {
		switch tag.Kind {
		case render.TagSection, render.TagInverted:
			l, err := placeLoop(tag, locs, index[k], index[pairs[k]])
			if err != nil {
				return nil, err
			}
			if cell := locs[index[k]].Cell; l.mode == paragraphLoop && cell.Valid() {
				l.fillsCell = onlyBlocks(parts, cell, l.start, l.end)
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, l)
			stack = append(stack, l)
		case render.TagClose:
			stack = stack[:len(stack)-1]
		}
	}

	if err := checkNesting(root); err != nil {
		return nil, err
	}

	loopAt := make(map[int]*loop)
	var register func(l *loop) error
	register = func(l *loop) error {
		for _, child := range l.children {
			if other, taken := loopAt[child.start]; taken {
				return NewTemplateError(
					fmt.Sprintf("sections %s and %s expand the same %s", other.tag, child.tag, child.mode),
					child.tag.String())
			}
			loopAt[child.start] = child
			if err := register(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := register(root); err != nil {
		return nil, err
	}
	return loopAt, nil
}

// placeLoop picks the expansion mode for a section whose opening tag is
// part s and closing tag is part e.
func placeLoop(tag render.Tag, locs []render.Location, s, e int) (*loop, error) {
	open, close := locs[s], locs[e]
	l := &loop{tag: tag}

	switch {
	case open.Paragraph.Valid() && open.Paragraph == close.Paragraph:
		if !open.SamePath(close) {
			return nil, NewTemplateError("incompatible structure: opening and closing tags sit at different depths", tag.String())
		}
		l.mode = inlineLoop
		l.start, l.bodyStart, l.bodyEnd, l.end = s, s+1, e, e+1

	case open.Row.Valid() && close.Row.Valid() && open.Table == close.Table && open.Cell != close.Cell:
		l.mode = rowLoop
		l.start, l.bodyStart = open.Row.Start, open.Row.Start
		l.bodyEnd, l.end = close.Row.End+1, close.Row.End+1

	case open.Alone && close.Alone && open.Paragraph.Valid() && close.Paragraph.Valid():
		if !open.SamePath(close) {
			return nil, NewTemplateError("incompatible structure: marker paragraphs sit at different depths", tag.String())
		}
		l.mode = paragraphLoop
		l.start, l.bodyStart = open.Paragraph.Start, open.Paragraph.End+1
		l.bodyEnd, l.end = close.Paragraph.Start, close.Paragraph.End+1

	case open.SamePath(close):
		l.mode = rawLoop
		l.start, l.bodyStart, l.bodyEnd, l.end = s, s+1, e, e+1

	default:
		return nil, NewTemplateError("incompatible structure: opening and closing tags sit at different depths", tag.String())
	}

	if l.bodyStart > l.bodyEnd {
		return nil, NewTemplateError("incompatible structure: closing tag precedes the section body", tag.String())
	}
	return l, nil
}

// onlyBlocks reports whether parts [start, end) hold every paragraph and
// table of cell.
func onlyBlocks(parts []render.Part, cell render.Span, start, end int) bool {
	for i := cell.Start + 1; i < cell.End; i++ {
		if i == start {
			i = end - 1
			continue
		}
		if render.IsBlockStart(parts[i]) {
			return false
		}
	}
	return true
}

func checkNesting(parent *loop) error {
	prevEnd := parent.bodyStart
	var prev *loop
	for _, child := range parent.children {
		if child.start < parent.bodyStart || child.end > parent.bodyEnd {
			return NewTemplateError(
				fmt.Sprintf("incompatible structure: %s loop does not fit inside %s", child.mode, parent.tag),
				child.tag.String())
		}
		if child.start < prevEnd {
			return NewTemplateError(
				fmt.Sprintf("incompatible structure: %s loop overlaps %s", child.mode, prev.tag),
				child.tag.String())
		}
		prevEnd, prev = child.end, child
		if err := checkNesting(child); err != nil {
			return err
		}
	}
	return nil
}

// Template is a parsed DOCX template. It is not safe for concurrent use.
type Template struct {
	archive ooxml.Archive
	parts   []*compiledPart
}

// ParseTemplate opens a DOCX archive and compiles the main document,
// headers and footers. A malformed archive or part fails with a
// *RenderError of kind RenderInvalidTemplate; tag and loop problems with
// kind RenderTemplate.
func ParseTemplate(data []byte) (*Template, error) {
	archive, err := ooxml.OpenDocx(data)
	if err != nil {
		return nil, NewRenderError(RenderInvalidTemplate, err)
	}

	t := &Template{archive: archive}
	for _, name := range ooxml.TemplateParts(archive) {
		raw, err := archive.ReadPart(name)
		if err != nil {
			return nil, NewRenderError(RenderInvalidTemplate, err)
		}

		parts, err := tokenizePart(name, raw)
		if err != nil {
			if IsTemplateError(err) {
				return nil, NewRenderError(RenderTemplate, err)
			}
			return nil, NewRenderError(RenderInvalidTemplate, fmt.Errorf("%s: %w", name, err))
		}

		cp, err := compilePart(name, parts)
		if err != nil {
			return nil, NewRenderError(RenderTemplate, err)
		}
		t.parts = append(t.parts, cp)
	}
	return t, nil
}

// PartNames lists the compiled parts in archive order.
func (t *Template) PartNames() []string {
	names := make([]string, len(t.parts))
	for i, cp := range t.parts {
		names[i] = cp.name
	}
	return names
}

// Execute renders every compiled part against data and returns the
// re-serialized archive.
func (t *Template) Execute(data map[string]any) ([]byte, error) {
	root := &scope{data: data}
	for _, cp := range t.parts {
		var buf bytes.Buffer
		if err := cp.render(&buf, root); err != nil {
			return nil, NewRenderError(RenderTemplate, err)
		}
		if err := t.archive.ReplacePart(cp.name, buf.Bytes()); err != nil {
			return nil, NewRenderError(RenderTemplate, err)
		}
	}

	out, err := t.archive.Bytes()
	if err != nil {
		return nil, NewRenderError(RenderTemplate, err)
	}
	return out, nil
}
