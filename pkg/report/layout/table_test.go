package layout

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

// recorder is a Canvas that measures every byte as 2mm and records output.
type recorder struct {
	pages int
	texts []string
	rects int
	// y is the cursor set by SetXY; lowest is the lowest text bottom edge.
	y      float64
	lowest float64
}

func (r *recorder) GetPageSize() (float64, float64) {
	return 210, 297
}

func (r *recorder) AddPage() {
	r.pages++
}

func (r *recorder) SetFont(string, string, float64) {}

func (r *recorder) SetFillColor(int, int, int) {}

func (r *recorder) SetTextColor(int, int, int) {}

func (r *recorder) Rect(float64, float64, float64, float64, string) {
	r.rects++
}

func (r *recorder) SetXY(_, y float64) {
	r.y = y
}

func (r *recorder) GetStringWidth(s string) float64 {
	return 2 * float64(len(s))
}

func (r *recorder) Err() bool {
	return false
}

func (r *recorder) Error() error {
	return nil
}

func (r *recorder) CellFormat(_, h float64, txt, _ string, _ int, _ string, _ bool, _ int, _ string) {
	r.texts = append(r.texts, txt)
	r.lowest = max(r.lowest, r.y+h)
}

func (r *recorder) count(text string) int {
	n := 0
	for _, t := range r.texts {
		if t == text {
			n++
		}
	}
	return n
}

func TestWrap(t *testing.T) {
	measure := func(s string) float64 { return float64(len(s)) }

	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"fits", "hello world", 20, []string{"hello world"}},
		{"breaks at space", "hello world", 8, []string{"hello", "world"}},
		{"explicit newline", "a\nb", 20, []string{"a", "b"}},
		{"long word split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"empty", "", 10, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(measure, tt.text, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Wrap(%q, %v) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestFitColumns(t *testing.T) {
	tests := []struct {
		name    string
		natural []float64
		avail   float64
		want    []float64
	}{
		{"grows to fill", []float64{10, 30}, 80, []float64{20, 60}},
		{"narrow keep natural", []float64{10, 100, 100}, 110, []float64{10, 50, 50}},
		{"all empty", []float64{0, 0}, 100, []float64{50, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitColumns(tt.natural, tt.avail)
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Fatalf("FitColumns() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDraw_RepeatsHeaderOnEveryPage(t *testing.T) {
	rows := make([][]string, 120)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i), "name"}
	}

	c := &recorder{}
	res, err := Draw(c, Table{Columns: []string{"ID", "Name"}, Rows: rows}, 80, DefaultStyle())
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	if res.Pages == 0 || c.pages != res.Pages {
		t.Fatalf("expected page breaks, got Result.Pages=%d canvas pages=%d", res.Pages, c.pages)
	}
	if got := c.count("ID"); got != res.Pages+1 {
		t.Errorf("header drawn %d times, want %d", got, res.Pages+1)
	}
	if c.count("119") != 1 {
		t.Error("last row not drawn")
	}
	if res.FinalY <= DefaultStyle().Margin || res.FinalY > 297-DefaultStyle().Margin {
		t.Errorf("FinalY = %v out of page bounds", res.FinalY)
	}
}

func TestDraw_SplitsRowTallerThanPage(t *testing.T) {
	lines := make([]string, 150)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%d", i)
	}
	rows := [][]string{{strings.Join(lines, "\n")}, {"after"}}

	style := DefaultStyle()
	bottom := 297 - style.Margin

	c := &recorder{}
	res, err := Draw(c, Table{Columns: []string{"Message"}, Rows: rows}, 80, style)
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	if res.Pages < 2 || c.pages != res.Pages {
		t.Fatalf("expected the row to span pages, got Result.Pages=%d canvas pages=%d", res.Pages, c.pages)
	}
	for _, line := range append(lines, "after") {
		if got := c.count(line); got != 1 {
			t.Errorf("%q drawn %d times, want 1", line, got)
		}
	}
	if got := c.count("Message"); got != res.Pages+1 {
		t.Errorf("header drawn %d times, want %d", got, res.Pages+1)
	}
	if c.lowest > bottom+1e-9 {
		t.Errorf("text drawn down to %v, below the bottom margin %v", c.lowest, bottom)
	}
	if res.FinalY > bottom {
		t.Errorf("FinalY = %v, want at most %v", res.FinalY, bottom)
	}
}

func TestDraw_EmptyBody(t *testing.T) {
	c := &recorder{}
	res, err := Draw(c, Table{Columns: []string{"ID", "Type"}}, 100, DefaultStyle())
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if c.count("ID") != 1 || c.count("Type") != 1 {
		t.Errorf("header not drawn once: %v", c.texts)
	}
	if res.FinalY <= 100 || res.Pages != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestDraw_NoColumns(t *testing.T) {
	if _, err := Draw(&recorder{}, Table{}, 10, DefaultStyle()); err == nil {
		t.Error("expected error for a table without columns")
	}
}

func TestDraw_Fpdf(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	rows := [][]string{
		{"1", strings.Repeat("a long feedback message ", 20)},
		{"2", "short"},
	}
	res, err := Draw(pdf, Table{Columns: []string{"ID", "Message"}, Rows: rows}, 80, DefaultStyle())
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if res.FinalY <= 80 {
		t.Errorf("FinalY = %v, want below start", res.FinalY)
	}
	if pdf.Err() {
		t.Fatalf("pdf error: %v", pdf.Error())
	}
}
