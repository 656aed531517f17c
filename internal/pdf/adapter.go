package pdf

import (
	"context"
	"io"

	"github.com/openshelf/bibliotheca/internal/reader"
)

// ReaderStore adapts Store to the reader session's DocumentStore interface.
//
//	var _ reader.DocumentStore = ReaderStore{}
type ReaderStore struct {
	store *Store
}

// NewReaderStore wraps a Store for use by reading sessions.
func NewReaderStore(store *Store) ReaderStore {
	return ReaderStore{store: store}
}

func (rs ReaderStore) Load(ctx context.Context, url string) (reader.Document, error) {
	doc, err := rs.store.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	return readerDocument{doc: doc}, nil
}

type readerDocument struct {
	doc *Document
}

func (rd readerDocument) PageCount() int {
	return rd.doc.PageCount()
}

func (rd readerDocument) Page(n int) (reader.Page, error) {
	page, err := rd.doc.Page(n)
	if err != nil {
		return nil, err
	}
	return readerPage{page: page}, nil
}

func (rd readerDocument) Release() {
	rd.doc.Release()
}

type readerPage struct {
	page *Page
}

func (rp readerPage) Viewport(scale float64) reader.Viewport {
	vp := rp.page.Viewport(scale)
	return reader.Viewport{Width: vp.Width, Height: vp.Height}
}

func (rp readerPage) RenderInto(w io.Writer, vp reader.Viewport) error {
	return rp.page.RenderInto(w, Viewport{Width: vp.Width, Height: vp.Height})
}
