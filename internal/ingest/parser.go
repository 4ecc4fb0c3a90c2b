package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoText          = errors.New("no extractable text")
)

// SupportedExtensions lists what FileExtractor can read.
var SupportedExtensions = []string{".pdf", ".docx", ".txt", ".html", ".htm"}

// Document is the extracted text of one input file keyed by 1-based page.
type Document struct {
	Name  string
	Pages map[int]string
}

// PageNumbers returns the page keys in ascending order.
func (d Document) PageNumbers() []int {
	out := make([]int, 0, len(d.Pages))
	for p := range d.Pages {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Extractor returns the text of each page of the file at path. A readable page
// without text maps to "". Any error means the whole file is unreadable.
type Extractor interface {
	Extract(ctx context.Context, path string) (map[int]string, error)
}

type FileExtractor struct{}

var _ Extractor = FileExtractor{}

func (FileExtractor) Extract(ctx context.Context, path string) (map[int]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var (
		pages map[int]string
		err   error
	)
	switch ext {
	case ".pdf":
		pages, err = parsePDF(path)
	case ".docx":
		var raw []byte
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		pages, err = parseDOCX(raw)
	case ".txt":
		pages, err = parseText(path)
	case ".html", ".htm":
		pages, err = parseHTML(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if err != nil {
		return nil, err
	}

	for p, text := range pages {
		pages[p] = cleanText(text)
	}
	return pages, nil
}

// Load extracts path into a Document named name.
func Load(ctx context.Context, ex Extractor, name, path string) (Document, error) {
	pages, err := ex.Extract(ctx, path)
	if err != nil {
		return Document{Name: name, Pages: map[int]string{}}, err
	}
	return Document{Name: name, Pages: pages}, nil
}

// AllowedFile reports whether name carries one of exts (compared without case).
func AllowedFile(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || ext == "." {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func parsePDF(path string) (pages map[int]string, err error) {
	// ledongthuc/pdf panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages = make(map[int]string, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages[i] = ""
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			pages[i] = ""
			continue
		}
		pages[i] = content
	}
	return pages, nil
}

func parseDOCX(raw []byte) (map[int]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open docx zip: %w", err)
	}

	var xmlData []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, openErr := f.Open()
			if openErr != nil {
				return nil, fmt.Errorf("open document.xml: %w", openErr)
			}
			defer rc.Close()
			xmlData, err = io.ReadAll(rc)
			if err != nil {
				return nil, fmt.Errorf("read document.xml: %w", err)
			}
			break
		}
	}
	if len(xmlData) == 0 {
		return nil, fmt.Errorf("%w: word/document.xml not found", ErrNoText)
	}

	decoder := xml.NewDecoder(bytes.NewReader(xmlData))
	pages := map[int]string{}
	page := 1
	var b strings.Builder
	inText := false
	for {
		tok, tokenErr := decoder.Token()
		if tokenErr == io.EOF {
			break
		}
		if tokenErr != nil {
			return nil, fmt.Errorf("decode document.xml: %w", tokenErr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "p":
				if b.Len() > 0 {
					b.WriteString("\n")
				}
			case "br":
				if attr(t, "type") == "page" {
					pages[page] = b.String()
					b.Reset()
					page++
				}
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.WriteString(string(t))
			}
		}
	}
	pages[page] = b.String()
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// parseText reads a plain text file, honouring a UTF-8 or UTF-16 byte order
// mark. Form feeds separate pages.
func parseText(path string) (map[int]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return nil, fmt.Errorf("decode text: %w", err)
	}

	pages := map[int]string{}
	for i, part := range strings.Split(string(decoded), "\f") {
		pages[i+1] = part
	}
	return pages, nil
}

func parseHTML(path string) (map[int]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	art, err := readability.FromReader(f, &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)})
	if err != nil {
		return nil, fmt.Errorf("readability extract: %w", err)
	}
	return map[int]string{1: art.TextContent}, nil
}

var zeroWidth = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\u2060", "",
	"\ufeff", "",
	"\u00ad", "",
)

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return zeroWidth.Replace(norm.NFC.String(text))
}
