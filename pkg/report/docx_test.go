package report

import (
	"strings"
	"testing"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
)

func renderDocx(t *testing.T, body string, rs *RecordSet) string {
	t.Helper()

	out, err := NewDOCXRenderer(fixedClock).Render(createDocx(t, body, nil), rs)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return readPart(t, out, ooxml.MainDocumentPart)
}

func TestRenderDOCX_Placeholders(t *testing.T) {
	body := para("Date: {reportDateTime}") +
		para("Users: {totalUsers} Devices: {totalDevices}") +
		para("Rating: {averageRating} Feedback: {totalFeedback}") +
		para("Unknown: [{missing}]")

	tests := []struct {
		name string
		rs   *RecordSet
		want []string
	}{
		{
			name: "sample data",
			rs:   sampleRecordSet(),
			want: []string{"Date: 2025-09-27", "Users: 1 Devices: 1", "Rating: 5.00 Feedback: 1", "Unknown: []"},
		},
		{
			name: "every collection missing",
			rs:   &RecordSet{},
			want: []string{"Users: 0 Devices: 0", "Rating: N/A Feedback: 0"},
		},
		{
			name: "nil record set",
			rs:   nil,
			want: []string{"Users: 0 Devices: 0", "Rating: N/A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := renderDocx(t, body, tt.rs)
			for _, want := range tt.want {
				if !strings.Contains(doc, want) {
					t.Errorf("document is missing %q:\n%s", want, doc)
				}
			}
			if strings.Contains(doc, "{") {
				t.Errorf("unrendered tag left in document:\n%s", doc)
			}
		})
	}
}

func TestRenderDOCX_SplitRuns(t *testing.T) {
	body := `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Total: {total</w:t></w:r>` +
		`<w:r><w:t>Us</w:t></w:r><w:r><w:t>ers} users</w:t></w:r></w:p>`

	doc := renderDocx(t, body, sampleRecordSet())
	if !strings.Contains(doc, "Total: 1") {
		t.Errorf("split tag was not rendered:\n%s", doc)
	}
	if !strings.Contains(doc, "<w:b/>") {
		t.Error("run formatting should be kept")
	}
	if !strings.Contains(doc, " users") {
		t.Error("text after the tag should be kept")
	}
}

func TestRenderDOCX_TableRowLoop(t *testing.T) {
	cell := func(text string) string { return `<w:tc>` + para(text) + `</w:tc>` }
	body := `<w:tbl>` +
		`<w:tr>` + cell("First") + cell("Last") + `</w:tr>` +
		`<w:tr>` + cell("{#users}{first_name}") + cell("{last_name}{/users}") + `</w:tr>` +
		`</w:tbl>`

	tests := []struct {
		name  string
		users []User
		rows  int
		want  []string
	}{
		{
			name:  "two users",
			users: []User{{FirstName: "Ada", LastName: "Lovelace"}, {FirstName: "Alan", LastName: "Turing"}},
			rows:  3,
			want:  []string{"Ada", "Lovelace", "Alan", "Turing"},
		},
		{
			name:  "no users drops the template row",
			users: []User{},
			rows:  1,
			want:  []string{"First", "Last"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := sampleRecordSet()
			rs.Users = tt.users

			doc := renderDocx(t, body, rs)
			if got := strings.Count(doc, "<w:tr>"); got != tt.rows {
				t.Errorf("rendered %d rows, want %d:\n%s", got, tt.rows, doc)
			}
			for _, want := range tt.want {
				if !strings.Contains(doc, want) {
					t.Errorf("document is missing %q", want)
				}
			}
			if strings.Index(doc, "Ada") > strings.Index(doc, "Alan") {
				t.Error("rows should keep record order")
			}
		})
	}
}

func TestRenderDOCX_ParagraphLoopInCell(t *testing.T) {
	body := `<w:tbl><w:tr>` +
		`<w:tc>` + para("Title") + `</w:tc>` +
		`<w:tc>` + para("{#users}") + para("{first_name}") + para("{/users}") + `</w:tc>` +
		`</w:tr></w:tbl>`

	tests := []struct {
		name       string
		users      []User
		paragraphs int
		want       []string
	}{
		{
			name:       "two users",
			users:      []User{{FirstName: "Ada"}, {FirstName: "Alan"}},
			paragraphs: 3,
			want:       []string{"Ada", "Alan"},
		},
		{
			name:       "no users keeps the cell valid",
			users:      []User{},
			paragraphs: 1,
			want:       []string{"<w:p/>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := sampleRecordSet()
			rs.Users = tt.users

			doc := renderDocx(t, body, rs)
			if got := strings.Count(doc, "<w:tr>"); got != 1 {
				t.Errorf("rendered %d rows, want 1:\n%s", got, doc)
			}
			if got := strings.Count(doc, "Title"); got != 1 {
				t.Errorf("static cell rendered %d times, want 1", got)
			}
			if got := strings.Count(doc, "<w:p>"); got != tt.paragraphs {
				t.Errorf("rendered %d paragraphs, want %d:\n%s", got, tt.paragraphs, doc)
			}
			if strings.Contains(doc, "<w:t></w:t>") || strings.Contains(doc, `<w:t xml:space="preserve"></w:t>`) {
				t.Errorf("marker paragraphs should be dropped:\n%s", doc)
			}
			for _, want := range tt.want {
				if !strings.Contains(doc, want) {
					t.Errorf("document is missing %q:\n%s", want, doc)
				}
			}
		})
	}
}

func TestRenderDOCX_ParagraphLoop(t *testing.T) {
	body := para("Feedback:") +
		para("{#feedback}") +
		para("{type}: {message}") +
		para("{/feedback}") +
		para("End")

	rs := sampleRecordSet()
	rs.Feedback = []Feedback{{Type: "Bug", Message: "Crash"}, {Type: "Idea", Message: "Dark mode"}}

	doc := renderDocx(t, body, rs)

	// Feedback:, two items, End.
	if got := strings.Count(doc, "<w:p>"); got != 4 {
		t.Errorf("rendered %d paragraphs, want 4:\n%s", got, doc)
	}
	for _, want := range []string{"Bug: Crash", "Idea: Dark mode", "End"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document is missing %q", want)
		}
	}
}

func TestRenderDOCX_InlineSections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		reviews []Review
		want    string
		absent  string
	}{
		{
			name:    "inverted with no reviews",
			body:    para("{^reviews}No reviews yet{/reviews}"),
			reviews: []Review{},
			want:    "No reviews yet",
		},
		{
			name:    "inverted with reviews",
			body:    para("[{^reviews}No reviews yet{/reviews}]"),
			reviews: []Review{{Rating: "4"}},
			want:    "[]",
			absent:  "No reviews yet",
		},
		{
			name:    "inline loop with closing shorthand",
			body:    para("Ratings:{#reviews} {rating}{/}"),
			reviews: []Review{{Rating: "4"}, {Rating: "5"}},
			want:    "Ratings: 4 5",
		},
		{
			name:    "outer scope visible inside loop",
			body:    para("{#reviews}{rating}/{averageRating};{/reviews}"),
			reviews: []Review{{Rating: "4"}, {Rating: "5"}},
			want:    "4/4.50;5/4.50;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := sampleRecordSet()
			rs.Reviews = tt.reviews

			doc := renderDocx(t, tt.body, rs)
			if !strings.Contains(doc, tt.want) {
				t.Errorf("document is missing %q:\n%s", tt.want, doc)
			}
			if tt.absent != "" && strings.Contains(doc, tt.absent) {
				t.Errorf("document should not contain %q", tt.absent)
			}
		})
	}
}

func TestRenderDOCX_TextHandling(t *testing.T) {
	rs := sampleRecordSet()
	rs.Feedback = []Feedback{{Message: "line one\nline two", Email: "a&b <x@y>"}}

	doc := renderDocx(t, para("{#feedback}{message}|{email}{/feedback}"), rs)

	if !strings.Contains(doc, `line one</w:t><w:br/><w:t xml:space="preserve">line two`) {
		t.Errorf("newline should become a line break:\n%s", doc)
	}
	if !strings.Contains(doc, "a&amp;b &lt;x@y&gt;") {
		t.Errorf("values should be escaped:\n%s", doc)
	}
}

func TestRenderDOCX_HeadersAndFooters(t *testing.T) {
	header := `<?xml version="1.0" encoding="UTF-8"?><w:hdr ` + wordNS + `>` + para("Report of {reportDateTime}") + `</w:hdr>`
	footer := `<?xml version="1.0" encoding="UTF-8"?><w:ftr ` + wordNS + `>` + para("{totalUsers} users") + `</w:ftr>`
	template := createDocx(t, para("Body"), map[string]string{
		"word/header1.xml": header,
		"word/footer1.xml": footer,
	})

	out, err := NewDOCXRenderer(fixedClock).Render(template, sampleRecordSet())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if got := readPart(t, out, "word/header1.xml"); !strings.Contains(got, "Report of 2025-09-27") {
		t.Errorf("header not rendered: %s", got)
	}
	if got := readPart(t, out, "word/footer1.xml"); !strings.Contains(got, "1 users") {
		t.Errorf("footer not rendered: %s", got)
	}
	if got := readPart(t, out, "_rels/.rels"); !strings.Contains(got, "Relationships") {
		t.Error("untouched parts should be copied")
	}
}

func TestRenderDOCX_Errors(t *testing.T) {
	tests := []struct {
		name     string
		template func(t *testing.T) []byte
		kind     RenderErrorKind
		contains string
	}{
		{
			name:     "not a zip archive",
			template: func(t *testing.T) []byte { return []byte("plain text") },
			kind:     RenderInvalidTemplate,
			contains: "invalid template",
		},
		{
			name:     "malformed xml",
			template: func(t *testing.T) []byte { return createDocx(t, "<w:p><w:r>", nil) },
			kind:     RenderInvalidTemplate,
		},
		{
			name:     "unclosed tag",
			template: func(t *testing.T) []byte { return createDocx(t, para("{totalUsers"), nil) },
			kind:     RenderTemplate,
			contains: "template render failed",
		},
		{
			name:     "unclosed section",
			template: func(t *testing.T) []byte { return createDocx(t, para("{#users}{uid}"), nil) },
			kind:     RenderTemplate,
		},
		{
			name:     "mismatched section",
			template: func(t *testing.T) []byte { return createDocx(t, para("{#users}{/devices}"), nil) },
			kind:     RenderTemplate,
		},
		{
			name:     "list in a placeholder",
			template: func(t *testing.T) []byte { return createDocx(t, para("{users}"), nil) },
			kind:     RenderTemplate,
			contains: "a list cannot be rendered as text",
		},
		{
			name: "section spanning table and paragraph",
			template: func(t *testing.T) []byte {
				return createDocx(t, `<w:tbl><w:tr><w:tc>`+para("{#users} x")+`</w:tc></w:tr></w:tbl>`+para("y {/users}"), nil)
			},
			kind: RenderTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewDOCXRenderer(fixedClock).Render(tt.template(t), sampleRecordSet())
			if out != nil {
				t.Error("no bytes should be returned on failure")
			}

			kind, ok := RenderErrorKindOf(err)
			if !ok {
				t.Fatalf("expected RenderError, got %v", err)
			}
			if kind != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", kind, tt.kind, err)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err, tt.contains)
			}
		})
	}
}

func TestBindingContext(t *testing.T) {
	rs := sampleRecordSet().Normalized()
	stats, err := ComputeSummaryAt(rs, fixedNow)
	if err != nil {
		t.Fatal(err)
	}

	ctx := BindingContext(stats, rs)
	for _, key := range []string{"reportDateTime", "totalUsers", "totalDevices", "averageRating", "totalFeedback", "users", "devices", "reviews", "feedback"} {
		if _, ok := ctx[key]; !ok {
			t.Errorf("binding context is missing %s", key)
		}
	}

	users := ctx["users"].([]any)
	if users[0].(map[string]any)["first_name"] != "A" {
		t.Errorf("user record not keyed by wire name: %v", users[0])
	}
}
