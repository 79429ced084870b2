package pdfmeta

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// buildPDF assembles a minimal but well-formed PDF with the given number of
// pages and an optional info dictionary, computing xref offsets as it goes.
func buildPDF(t *testing.T, pages int, withInfo bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	var offsets []int

	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+i))
	}
	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", 3+i))
	}
	if withInfo {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Title (Dune) /Author (Frank Herbert) >>\nendobj\n", 3+pages))
	}

	xrefOffset := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R", len(offsets)+1))
	if withInfo {
		buf.WriteString(fmt.Sprintf(" /Info %d 0 R", 3+pages))
	}
	buf.WriteString(fmt.Sprintf(" >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset))
	return buf.Bytes()
}

func TestSniffReadsPageCountAndInfo(t *testing.T) {
	data := buildPDF(t, 3, true)
	meta, err := Sniff(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if meta.PageCount != 3 {
		t.Fatalf("expected 3 pages, got %d", meta.PageCount)
	}
	if meta.Title != "Dune" {
		t.Fatalf("unexpected title: %q", meta.Title)
	}
	if meta.Author != "Frank Herbert" {
		t.Fatalf("unexpected author: %q", meta.Author)
	}
}

func TestSniffWithoutInfoDict(t *testing.T) {
	data := buildPDF(t, 1, false)
	meta, err := Sniff(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if meta.PageCount != 1 {
		t.Fatalf("expected 1 page, got %d", meta.PageCount)
	}
	if meta.Title != "" || meta.Author != "" {
		t.Fatalf("expected empty info, got %+v", meta)
	}
}

func TestSniffRejectsGarbage(t *testing.T) {
	data := []byte("this is not a pdf at all")
	if _, err := Sniff(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Fatalf("expected error for non-PDF input")
	}
}

func TestPageCount(t *testing.T) {
	data := buildPDF(t, 5, false)
	n, err := PageCount(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 pages, got %d", n)
	}
}
