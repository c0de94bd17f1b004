// Package layout draws paginated data tables onto a PDF page canvas.
//
// A table is laid out in three passes: column widths are fitted to the
// printable width, every cell is wrapped to its column, and rows are placed
// top to bottom. When a row would cross the bottom margin a new page is
// started and the header row is repeated. Draw returns the bottom edge of
// the last row so callers can stack the next element below it.
package layout
