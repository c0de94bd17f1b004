package report

import (
	"github.com/wisenergy/go-report/pkg/report/ooxml"
	"github.com/wisenergy/go-report/pkg/report/render"
)

// compiledPart is one XML part of a template, split into markup, text and
// tags, with every section resolved to the range it repeats.
type compiledPart struct {
	name   string
	parts  []render.Part
	tags   map[int]render.Tag
	loopAt map[int]*loop
}

// tokenizePart parses raw part XML and splits it into template parts.
// Tags broken across runs are merged first.
func tokenizePart(name string, data []byte) ([]render.Part, error) {
	stream, err := ooxml.Parse(data)
	if err != nil {
		return nil, err
	}

	normalized, err := render.NormalizeTags(stream)
	if err != nil {
		return nil, &TemplateError{Message: err.Error(), Part: name}
	}
	return render.Split(normalized), nil
}

// compilePart classifies and pairs the tags of a tokenized part and plans
// the loops.
func compilePart(name string, parts []render.Part) (*compiledPart, error) {
	cp := &compiledPart{
		name:  name,
		parts: parts,
		tags:  make(map[int]render.Tag),
	}

	var index []int
	var tags []render.Tag
	for i, p := range parts {
		if p.Kind != render.PartTag {
			continue
		}
		tag := render.ParseTag(p.Value)
		cp.tags[i] = tag
		index = append(index, i)
		tags = append(tags, tag)
	}

	pairs, err := render.PairSections(tags)
	if err != nil {
		return nil, &TemplateError{Message: err.Error(), Part: name}
	}

	loopAt, err := planLoops(parts, index, tags, pairs)
	if err != nil {
		if te, ok := err.(*TemplateError); ok {
			te.Part = name
		}
		return nil, err
	}
	cp.loopAt = loopAt
	return cp, nil
}
