package pdf

import "testing"

func TestParsePDFRejectsGarbage(t *testing.T) {
	if _, err := ParsePDF([]byte("not a pdf")); err == nil {
		t.Fatal("expected error for non-pdf input")
	}
}
