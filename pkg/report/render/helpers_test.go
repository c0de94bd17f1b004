package render

import (
	"strings"
	"testing"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
)

func mustParse(t *testing.T, src string) ooxml.Stream {
	t.Helper()
	s, err := ooxml.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return s
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr string
	}{
		{
			name: "tag split across runs moves into first run",
			in:   `<w:p><w:r><w:t>Hello {first</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>_name} and {x}</w:t></w:r></w:p>`,
			want: `<w:p><w:r><w:t xml:space="preserve">Hello {first_name}</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve"> and {x}</w:t></w:r></w:p>`,
		},
		{
			name: "tag split over three runs leaves empty middle run",
			in:   `<w:p><w:r><w:t>{</w:t></w:r><w:r><w:t>#users</w:t></w:r><w:r><w:t>}</w:t></w:r></w:p>`,
			want: `<w:p><w:r><w:t xml:space="preserve">{#users}</w:t></w:r><w:r><w:t xml:space="preserve"></w:t></w:r><w:r><w:t xml:space="preserve"></w:t></w:r></w:p>`,
		},
		{
			name: "plain text untouched",
			in:   `<w:p><w:r><w:t>No tags here</w:t></w:r></w:p>`,
			want: `<w:p><w:r><w:t>No tags here</w:t></w:r></w:p>`,
		},
		{
			name: "self-closing text element gets content slot",
			in:   `<w:p><w:r><w:t/></w:r></w:p>`,
			want: `<w:p><w:r><w:t></w:t></w:r></w:p>`,
		},
		{
			name:    "unclosed tag",
			in:      `<w:p><w:r><w:t>{oops</w:t></w:r></w:p>`,
			wantErr: "unclosed tag",
		},
		{
			name:    "tags never cross paragraphs",
			in:      `<w:p><w:r><w:t>{a</w:t></w:r></w:p><w:p><w:r><w:t>b}</w:t></w:r></w:p>`,
			wantErr: "unclosed tag",
		},
		{
			name:    "nested delimiters",
			in:      `<w:p><w:r><w:t>{a{b}}</w:t></w:r></w:p>`,
			wantErr: "unclosed tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTags(mustParse(t, tt.in))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NormalizeTags() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTags() error = %v", err)
			}
			if string(got.Bytes()) != tt.want {
				t.Errorf("NormalizeTags() =\n%s\nwant\n%s", got.Bytes(), tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	s := mustParse(t, `<w:p><w:r><w:t>Hi {name}!</w:t></w:r><w:r><w:instrText>{not a tag}</w:instrText></w:r></w:p>`)
	parts := Split(s)

	var tags, texts []string
	for _, p := range parts {
		switch p.Kind {
		case PartTag:
			tags = append(tags, p.Value)
		case PartText:
			texts = append(texts, p.Value)
		}
	}

	if strings.Join(tags, "|") != "name" {
		t.Errorf("tags = %v, want [name]", tags)
	}
	if strings.Join(texts, "|") != "Hi |!" {
		t.Errorf("texts = %v, want [Hi  !]", texts)
	}
}
