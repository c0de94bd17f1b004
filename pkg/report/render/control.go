package render

import (
	"fmt"
	"strings"
)

// TagKind is the role a tag plays in the template.
type TagKind int

const (
	// TagValue is a placeholder replaced by a value: {name}.
	TagValue TagKind = iota
	// TagSection opens a loop or conditional section: {#items}.
	TagSection
	// TagInverted opens a section rendered only for empty values: {^items}.
	TagInverted
	// TagClose ends the innermost section: {/items} or {/}.
	TagClose
)

func (k TagKind) String() string {
	switch k {
	case TagValue:
		return "value"
	case TagSection:
		return "section"
	case TagInverted:
		return "inverted"
	case TagClose:
		return "close"
	default:
		return "unknown"
	}
}

// Tag is a classified template tag.
type Tag struct {
	Kind TagKind
	Name string
}

// String renders the tag in template syntax.
func (t Tag) String() string {
	switch t.Kind {
	case TagSection:
		return "{#" + t.Name + "}"
	case TagInverted:
		return "{^" + t.Name + "}"
	case TagClose:
		return "{/" + t.Name + "}"
	default:
		return "{" + t.Name + "}"
	}
}

// ParseTag classifies a tag body (the text between the delimiters).
func ParseTag(body string) Tag {
	body = strings.TrimSpace(body)
	if body == "" {
		return Tag{Kind: TagValue}
	}

	switch body[0] {
	case '#':
		return Tag{Kind: TagSection, Name: strings.TrimSpace(body[1:])}
	case '^':
		return Tag{Kind: TagInverted, Name: strings.TrimSpace(body[1:])}
	case '/':
		return Tag{Kind: TagClose, Name: strings.TrimSpace(body[1:])}
	default:
		return Tag{Kind: TagValue, Name: body}
	}
}

// PairSections matches every section opener with its closing tag. The
// result maps an opener's index to its closer's index and back; value tags
// map to -1.
func PairSections(tags []Tag) ([]int, error) {
	pairs := make([]int, len(tags))
	var stack []int

	for i, tag := range tags {
		pairs[i] = -1
		switch tag.Kind {
		case TagValue:
			if tag.Name == "" {
				return nil, fmt.Errorf("empty tag {}")
			}
		case TagSection, TagInverted:
			if tag.Name == "" {
				return nil, fmt.Errorf("section tag %s has no name", tag)
			}
			stack = append(stack, i)
		case TagClose:
			if len(stack) == 0 {
				return nil, fmt.Errorf("closing tag %s has no matching opening tag", tag)
			}
			open := stack[len(stack)-1]
			if tag.Name != "" && tag.Name != tags[open].Name {
				return nil, fmt.Errorf("closing tag %s does not match opening tag %s", tag, tags[open])
			}
			stack = stack[:len(stack)-1]
			pairs[open], pairs[i] = i, open
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed section %s", tags[stack[len(stack)-1]])
	}
	return pairs, nil
}
