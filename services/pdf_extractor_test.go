package services

import (
	"bytes"
	"strings"
	"testing"
)

func TestSanitizePDFTruncatesTrailingGarbage(t *testing.T) {
	pdf := []byte("%PDF-1.4\nsome body\n%%EOF\n")
	garbage := append(append([]byte{}, pdf...), []byte("EXTRA DEVICE METADATA BLOCK")...)

	got := sanitizePDF(garbage)

	if !bytes.Equal(got, pdf) {
		t.Errorf("sanitizePDF = %q, want %q", got, pdf)
	}
}

func TestSanitizePDFKeepsValidContent(t *testing.T) {
	pdf := []byte("%PDF-1.4\nsome body\n%%EOF\n")

	if got := sanitizePDF(pdf); !bytes.Equal(got, pdf) {
		t.Errorf("sanitizePDF changed a clean file: %q", got)
	}
}

func TestSanitizePDFNonPDFUntouched(t *testing.T) {
	content := []byte("plain text, not a document")

	if got := sanitizePDF(content); !bytes.Equal(got, content) {
		t.Errorf("sanitizePDF changed non-PDF content: %q", got)
	}
}

func TestSanitizePDFMissingEOF(t *testing.T) {
	content := []byte("%PDF-1.4\ntruncated mid-stream")

	if got := sanitizePDF(content); !bytes.Equal(got, content) {
		t.Errorf("sanitizePDF changed a truncated file: %q", got)
	}
}

func TestExtractPagesRejectsEmpty(t *testing.T) {
	extractor := NewPDFExtractor()

	if _, err := extractor.ExtractPages(nil); err == nil {
		t.Fatal("ExtractPages(nil) succeeded, want error")
	}
}

func TestExtractPagesRejectsGarbage(t *testing.T) {
	extractor := NewPDFExtractor()

	_, err := extractor.ExtractPages([]byte("definitely not a pdf"))
	if err == nil {
		t.Fatal("ExtractPages on garbage succeeded, want error")
	}
	if !strings.Contains(err.Error(), "PDF") {
		t.Errorf("error does not mention PDF: %v", err)
	}
}
