// Package export turns a stored post into a standalone HTML page, a PDF, or a
// DOCX file.
package export

import "errors"

type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatHTML, FormatPDF, FormatDOCX:
		return Format(s), nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Paper selects the PDF page size. The zero value prints Letter.
type Paper string

const (
	PaperLetter Paper = "letter"
	PaperA4     Paper = "a4"
)

func ParsePaper(s string) (Paper, error) {
	switch Paper(s) {
	case "", PaperLetter:
		return PaperLetter, nil
	case PaperA4:
		return PaperA4, nil
	default:
		return "", ErrUnsupportedPaper
	}
}

type Request struct {
	Slug   string
	Format Format
	Paper  Paper
}

type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrUnsupportedPaper  = errors.New("unsupported paper size")
	// ErrPDFDependencyMissing indicates headless Chrome is not installed.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates pandoc is not installed.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
