package report

import (
	"archive/zip"
	"bytes"
	"testing"
	"time"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

var fixedNow = time.Date(2025, 9, 27, 14, 3, 12, 345_000_000, time.UTC)

func fixedClock() time.Time { return fixedNow }

// documentXML wraps body markup in a minimal WordprocessingML document.
func documentXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`
}

// createDocx builds a DOCX archive in memory. The main document gets body;
// extra maps further part names to their content.
func createDocx(t testing.TB, body string, extra map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	files := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`},
		{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		{ooxml.MainDocumentPart, documentXML(body)},
	}
	for name, content := range extra {
		files = append(files, struct{ name, content string }{name, content})
	}

	for _, f := range files {
		fw, err := w.Create(f.name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", f.name, err)
		}
		if _, err := fw.Write([]byte(f.content)); err != nil {
			t.Fatalf("failed to write %s: %v", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// readPart returns a part of a rendered DOCX.
func readPart(t testing.TB, docx []byte, name string) string {
	t.Helper()

	a, err := ooxml.OpenDocx(docx)
	if err != nil {
		t.Fatalf("output is not a DOCX archive: %v", err)
	}
	data, err := a.ReadPart(name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

// sampleRecordSet is the smallest complete RecordSet: one record per collection.
func sampleRecordSet() *RecordSet {
	return &RecordSet{
		Users:    []User{{UID: "1", FirstName: "A"}},
		Devices:  []Device{{ID: "1", Status: "Paired"}},
		Reviews:  []Review{{Rating: "5"}},
		Feedback: []Feedback{{ID: "1", Type: "Bug"}},
	}
}

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}
