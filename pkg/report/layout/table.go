package layout

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// pointsPerMM converts font sizes in points to millimetres.
const pointsPerMM = 72 / 25.4

// Canvas is the subset of a PDF document the table layout draws with.
// *fpdf.Fpdf satisfies it when the document unit is millimetres.
type Canvas interface {
	GetPageSize() (width, height float64)
	AddPage()
	SetFont(family, style string, size float64)
	SetFillColor(r, g, b int)
	SetTextColor(r, g, b int)
	Rect(x, y, w, h float64, style string)
	SetXY(x, y float64)
	CellFormat(w, h float64, txt, border string, ln int, align string, fill bool, link int, linkStr string)
	GetStringWidth(s string) float64
	Err() bool
	Error() error
}

// RGB is a colour with 0-255 components.
type RGB struct {
	R, G, B int
}

// Style controls the look of a table.
type Style struct {
	FontFamily string
	// FontSize is the body and header font size in points.
	FontSize float64
	// LineHeight is the line spacing as a multiple of the font size.
	LineHeight float64
	// Padding is the inner cell padding in millimetres.
	Padding float64
	// Margin is the page margin on every side in millimetres.
	Margin float64

	HeaderFill RGB
	HeaderText RGB
	BodyText   RGB
	// StripeFill is applied to every second body row.
	StripeFill RGB
}

// DefaultStyle returns the striped report style: teal header with white
// bold text and light grey stripes.
func DefaultStyle() Style {
	return Style{
		FontFamily: "helvetica",
		FontSize:   10,
		LineHeight: 1.15,
		Padding:    1.76,
		Margin:     14.1,
		HeaderFill: RGB{22, 160, 133},
		HeaderText: RGB{255, 255, 255},
		BodyText:   RGB{80, 80, 80},
		StripeFill: RGB{245, 245, 245},
	}
}

// Table is a header row plus body rows. Rows shorter than Columns are
// padded with empty cells.
type Table struct {
	Columns []string
	Rows    [][]string
	// Translate converts cell text to the canvas encoding before measuring.
	// Nil leaves text unchanged.
	Translate func(string) string
}

// Result describes a drawn table.
type Result struct {
	// FinalY is the bottom edge of the last drawn row on the last page.
	FinalY float64
	// Pages is the number of page breaks the table caused.
	Pages int
}

// Draw lays out t starting at startY on the current page. The canvas must
// not break pages on its own.
func Draw(c Canvas, t Table, startY float64, style Style) (Result, error) {
	if len(t.Columns) == 0 {
		return Result{}, errors.New("table has no columns")
	}

	tr := t.Translate
	if tr == nil {
		tr = func(s string) string { return s }
	}

	pageW, pageH := c.GetPageSize()
	avail := pageW - 2*style.Margin
	if avail <= 0 {
		return Result{}, fmt.Errorf("page width %.1f leaves no room inside margins", pageW)
	}
	bottom := pageH - style.Margin
	lineH := style.FontSize / pointsPerMM * style.LineHeight

	header := translateRow(t.Columns, len(t.Columns), tr)
	body := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		body[i] = translateRow(row, len(t.Columns), tr)
	}

	c.SetFont(style.FontFamily, "B", style.FontSize)
	headerNat := naturalWidths(c.GetStringWidth, [][]string{header}, len(header), style.Padding)
	c.SetFont(style.FontFamily, "", style.FontSize)
	bodyNat := naturalWidths(c.GetStringWidth, body, len(header), style.Padding)
	for i := range headerNat {
		bodyNat[i] = max(bodyNat[i], headerNat[i])
	}
	widths := FitColumns(bodyNat, avail)

	c.SetFont(style.FontFamily, "B", style.FontSize)
	headerCells := wrapRow(c.GetStringWidth, header, widths, style.Padding)
	c.SetFont(style.FontFamily, "", style.FontSize)
	bodyCells := make([][][]string, len(body))
	for i, row := range body {
		bodyCells[i] = wrapRow(c.GetStringWidth, row, widths, style.Padding)
	}

	d := drawer{c: c, style: style, widths: widths, lineH: lineH}
	res := Result{}
	y := startY

	headerH := d.rowHeight(headerCells)
	// Rows taller than a fresh page below the header are split across pages.
	pageRoom := bottom - style.Margin - headerH
	firstH := headerH + d.lineH + 2*style.Padding
	if len(bodyCells) > 0 {
		if h := d.rowHeight(bodyCells[0]); h <= pageRoom {
			firstH = headerH + h
		}
	}
	if y+firstH > bottom {
		c.AddPage()
		res.Pages++
		y = style.Margin
	}
	y = d.header(headerCells, y)

	newPage := func() {
		c.AddPage()
		res.Pages++
		y = d.header(headerCells, style.Margin)
	}

	for i, cells := range bodyCells {
		h := d.rowHeight(cells)
		if y+h > bottom && h <= pageRoom {
			newPage()
		}

		var fill *RGB
		if i%2 == 1 {
			fill = &style.StripeFill
		}
		for {
			fit := d.linesFitting(bottom - y)
			if lineCount(cells) <= fit {
				y = d.body(cells, y, fill)
				break
			}
			if fit > 0 {
				var head [][]string
				head, cells = splitCells(cells, fit)
				y = d.body(head, y, fill)
			} else if y == style.Margin+headerH {
				return Result{}, fmt.Errorf("page height %.1f leaves no room for a table row", pageH)
			}
			newPage()
		}

		if c.Err() {
			return Result{}, c.Error()
		}
	}

	if c.Err() {
		return Result{}, c.Error()
	}
	res.FinalY = y
	return res, nil
}

type drawer struct {
	c      Canvas
	style  Style
	widths []float64
	lineH  float64
}

func (d drawer) rowHeight(cells [][]string) float64 {
	lines := max(1, lineCount(cells))
	return float64(lines)*d.lineH + 2*d.style.Padding
}

// linesFitting returns how many text lines of a row fit in space.
func (d drawer) linesFitting(space float64) int {
	return int(math.Floor((space-2*d.style.Padding)/d.lineH + 1e-9))
}

func (d drawer) body(cells [][]string, y float64, fill *RGB) float64 {
	s := d.style
	d.c.SetFont(s.FontFamily, "", s.FontSize)
	d.c.SetTextColor(s.BodyText.R, s.BodyText.G, s.BodyText.B)
	return d.row(cells, y, d.rowHeight(cells), fill)
}

func (d drawer) header(cells [][]string, y float64) float64 {
	s := d.style
	d.c.SetFont(s.FontFamily, "B", s.FontSize)
	d.c.SetTextColor(s.HeaderText.R, s.HeaderText.G, s.HeaderText.B)
	return d.row(cells, y, d.rowHeight(cells), &s.HeaderFill)
}

// row draws one row of wrapped cells with its top edge at y and returns
// its bottom edge.
func (d drawer) row(cells [][]string, y, h float64, fill *RGB) float64 {
	x := d.style.Margin
	if fill != nil {
		total := 0.0
		for _, w := range d.widths {
			total += w
		}
		d.c.SetFillColor(fill.R, fill.G, fill.B)
		d.c.Rect(x, y, total, h, "F")
	}

	for i, lines := range cells {
		for j, line := range lines {
			d.c.SetXY(x+d.style.Padding, y+d.style.Padding+float64(j)*d.lineH)
			d.c.CellFormat(d.widths[i]-2*d.style.Padding, d.lineH, line, "", 0, "L", false, 0, "")
		}
		x += d.widths[i]
	}
	return y + h
}

func lineCount(cells [][]string) int {
	n := 0
	for _, cell := range cells {
		n = max(n, len(cell))
	}
	return n
}

// splitCells cuts every cell after its first n lines.
func splitCells(cells [][]string, n int) (head, rest [][]string) {
	head = make([][]string, len(cells))
	rest = make([][]string, len(cells))
	for i, lines := range cells {
		k := min(n, len(lines))
		head[i], rest[i] = lines[:k], lines[k:]
	}
	return head, rest
}

func translateRow(row []string, n int, tr func(string) string) []string {
	out := make([]string, n)
	for i := 0; i < n && i < len(row); i++ {
		out[i] = tr(row[i])
	}
	return out
}

// naturalWidths returns, per column, the width needed to show the widest
// line of any cell without wrapping.
func naturalWidths(measure func(string) float64, rows [][]string, n int, padding float64) []float64 {
	widths := make([]float64, n)
	for _, row := range rows {
		for i, cell := range row {
			for _, line := range strings.Split(cell, "\n") {
				widths[i] = max(widths[i], measure(line)+2*padding)
			}
		}
	}
	return widths
}

// FitColumns distributes avail across columns. Columns narrower than an
// equal share of what is left keep their natural width; the remaining
// space is split evenly among wider ones. When everything fits, columns
// grow in proportion to their natural width to fill avail.
func FitColumns(natural []float64, avail float64) []float64 {
	n := len(natural)
	widths := make([]float64, n)
	if n == 0 {
		return widths
	}

	total := 0.0
	for _, w := range natural {
		total += w
	}
	if total <= 0 {
		for i := range widths {
			widths[i] = avail / float64(n)
		}
		return widths
	}
	if total <= avail {
		for i, w := range natural {
			widths[i] = w * avail / total
		}
		return widths
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return natural[order[a]] < natural[order[b]] })

	remaining := avail
	for k, i := range order {
		share := remaining / float64(n-k)
		widths[i] = min(natural[i], share)
		remaining -= widths[i]
	}
	return widths
}

func wrapRow(measure func(string) float64, row []string, widths []float64, padding float64) [][]string {
	cells := make([][]string, len(row))
	for i, text := range row {
		cells[i] = Wrap(measure, text, widths[i]-2*padding)
	}
	return cells
}

// Wrap breaks text into lines no wider than width. Explicit newlines are
// kept, lines break at spaces where possible, and words wider than width
// are split. The result always holds at least one line.
func Wrap(measure func(string) float64, text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(measure, para, width)...)
	}
	return lines
}

func wrapParagraph(measure func(string) float64, text string, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if measure(candidate) <= width {
			current = candidate
			continue
		}

		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for measure(word) > width && len(word) > 1 {
			cut := fitPrefix(measure, word, width)
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		current = word
	}
	return append(lines, current)
}

// fitPrefix returns the length of the longest prefix of word that fits in
// width, and at least 1. Text is measured byte-wise, matching single-byte
// font encodings.
func fitPrefix(measure func(string) float64, word string, width float64) int {
	n := 1
	for n < len(word) && measure(word[:n+1]) <= width {
		n++
	}
	return n
}
