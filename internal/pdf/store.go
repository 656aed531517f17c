// Package pdf implements the remote document store on top of pdfcpu.
//
// Load fetches a document into a per-document working directory, validates
// it and caches its page geometry. Pages are served as single-page extracts
// sized by the requested zoom scale. Release removes the working directory
// and with it all decode resources.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrPageOutOfRange is returned for page numbers outside [1, PageCount].
var ErrPageOutOfRange = errors.New("page number out of range")

// Store loads documents from remote URLs or local paths.
type Store struct {
	client *http.Client
	conf   *model.Configuration
}

// NewStore creates a document store with a default HTTP client.
func NewStore() *Store {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Store{
		client: &http.Client{Timeout: 2 * time.Minute},
		conf:   conf,
	}
}

// Load fetches and parses the document at url. The returned document owns a
// temp directory that Release removes.
func (s *Store) Load(ctx context.Context, url string) (*Document, error) {
	tempDir, err := os.MkdirTemp("", "bibliotheca-doc-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	path := filepath.Join(tempDir, "document.pdf")
	if err := s.fetch(ctx, url, path); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	if err := api.ValidateFile(path, s.conf); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}

	dims, err := api.PageDimsFile(path)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to read page geometry: %w", err)
	}

	return &Document{
		path:      path,
		tempDir:   tempDir,
		pageCount: pageCount,
		dims:      dims,
		conf:      s.conf,
	}, nil
}

// CountPages loads the document just long enough to read its actual page
// count.
func (s *Store) CountPages(ctx context.Context, url string) (int, error) {
	doc, err := s.Load(ctx, url)
	if err != nil {
		return 0, err
	}
	defer doc.Release()
	return doc.PageCount(), nil
}

// fetch downloads url into dest, or copies from disk when url is a local
// path.
func (s *Store) fetch(ctx context.Context, url, dest string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		src, err := os.Open(url)
		if err != nil {
			return fmt.Errorf("failed to open document file: %w", err)
		}
		defer src.Close()
		return writeFile(dest, src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build document request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch document: unexpected status %d", resp.StatusCode)
	}

	return writeFile(dest, resp.Body)
}

func writeFile(dest string, src io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create document file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write document file: %w", err)
	}
	return nil
}

// Document is an open handle on a loaded PDF.
type Document struct {
	path      string
	tempDir   string
	pageCount int
	dims      []types.Dim
	conf      *model.Configuration
}

// PageCount returns the document's total page count.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Page returns page n, 1-based.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > d.pageCount {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, d.pageCount)
	}
	return &Page{doc: d, number: n, dim: d.dims[n-1]}, nil
}

// Release removes the working directory. The document must not be used
// afterwards.
func (d *Document) Release() {
	if d.tempDir != "" {
		os.RemoveAll(d.tempDir)
		d.tempDir = ""
	}
}

// Viewport is the rendered page size at a zoom scale, in logical units.
type Viewport struct {
	Width  float64
	Height float64
}

// Page is a single page of an open document.
type Page struct {
	doc    *Document
	number int
	dim    types.Dim
}

// Number returns the 1-based page number.
func (p *Page) Number() int {
	return p.number
}

// Viewport returns the page geometry scaled by the zoom factor.
func (p *Page) Viewport(scale float64) Viewport {
	return Viewport{
		Width:  p.dim.Width * scale,
		Height: p.dim.Height * scale,
	}
}

// RenderInto writes a single-page extract of this page to w. The viewport
// is advisory: the extract carries the page at its native geometry and the
// surface applies the scale.
func (p *Page) RenderInto(w io.Writer, vp Viewport) error {
	f, err := os.Open(p.doc.path)
	if err != nil {
		return fmt.Errorf("failed to open document for render: %w", err)
	}
	defer f.Close()

	pages := []string{strconv.Itoa(p.number)}
	if err := api.Trim(f, w, pages, p.doc.conf); err != nil {
		return fmt.Errorf("failed to render page %d: %w", p.number, err)
	}
	return nil
}
