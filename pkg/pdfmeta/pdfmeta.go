// Package pdfmeta sniffs document properties from uploaded PDFs. Everything
// here is best effort: a malformed file yields an error the caller can
// ignore, never a failed upload.
package pdfmeta

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Meta holds properties read from a PDF's document information dictionary.
type Meta struct {
	Title     string
	Author    string
	PageCount int
}

// Sniff reads the page count and info dictionary from a PDF. The underlying
// parser panics on some malformed inputs, so the recover keeps sniffing
// strictly best effort.
func Sniff(r io.ReaderAt, size int64) (meta Meta, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sniff pdf: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return Meta{}, fmt.Errorf("open pdf: %w", err)
	}
	meta.PageCount = reader.NumPage()

	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		meta.Title = info.Key("Title").Text()
		meta.Author = info.Key("Author").Text()
	}
	return meta, nil
}

// PageCount returns only the number of pages.
func PageCount(r io.ReaderAt, size int64) (int, error) {
	meta, err := Sniff(r, size)
	if err != nil {
		return 0, err
	}
	return meta.PageCount, nil
}
