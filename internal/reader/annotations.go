package reader

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openshelf/bibliotheca/internal/database/bookmarks"
	"github.com/openshelf/bibliotheca/internal/entities"
)

// Bookmark and note lists are kept in a local cache mutated optimistically:
// the cache changes alongside the store call and rolls back when the store
// reports failure. Both lists load lazily on first panel access.

// Bookmarks returns the reader's bookmarks for this book, ordered by page.
func (s *Session) Bookmarks() ([]entities.Bookmark, error) {
	if s.userID == entities.AnonymousUserID {
		return nil, nil
	}

	s.mu.Lock()
	if s.bookmarksReady {
		out := make([]entities.Bookmark, len(s.bookmarkCache))
		copy(out, s.bookmarkCache)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	list, err := s.deps.Bookmarks.ListByUserAndBook(s.userID, s.ref.BookID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.bookmarkCache = list
	s.bookmarksReady = true
	out := make([]entities.Bookmark, len(list))
	copy(out, list)
	s.mu.Unlock()
	return out, nil
}

// AddBookmark bookmarks the current page. An empty title defaults to
// "Page N". Returns bookmarks.ErrDuplicate when the page is already
// bookmarked, surfaced to the reader as a distinct notice.
func (s *Session) AddBookmark(title string) (*entities.Bookmark, error) {
	if s.userID == entities.AnonymousUserID {
		s.notify(NoticeValidation, "sign in to add bookmarks")
		return nil, ErrAnonymous
	}

	if _, err := s.Bookmarks(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	page := s.currentPage
	if title == "" {
		title = fmt.Sprintf("Page %d", page)
	}
	bookmark := entities.Bookmark{
		UserID:     s.userID,
		BookID:     s.ref.BookID,
		PageNumber: page,
		Title:      title,
	}
	s.bookmarkCache = append(s.bookmarkCache, bookmark)
	index := len(s.bookmarkCache) - 1
	s.mu.Unlock()

	err := s.deps.Bookmarks.Create(&bookmark)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Roll back the optimistic append.
		s.bookmarkCache = append(s.bookmarkCache[:index], s.bookmarkCache[index+1:]...)
		if errors.Is(err, bookmarks.ErrDuplicate) {
			s.notices = append(s.notices, Notice{Kind: NoticeDuplicate, Message: "you already have a bookmark for this page", At: time.Now()})
			return nil, err
		}
		log.Printf("reader: bookmark create failed for user %d book %d: %v", s.userID, s.ref.BookID, err)
		s.notices = append(s.notices, Notice{Kind: NoticePersistence, Message: "could not save bookmark", At: time.Now()})
		return nil, err
	}
	s.bookmarkCache[index] = bookmark
	return &bookmark, nil
}

// RemoveBookmark deletes a bookmark, restoring the cached entry when the
// store call fails.
func (s *Session) RemoveBookmark(id uint) error {
	if s.userID == entities.AnonymousUserID {
		return ErrAnonymous
	}

	s.mu.Lock()
	index := -1
	var removed entities.Bookmark
	for i, b := range s.bookmarkCache {
		if b.ID == id {
			index = i
			removed = b
			break
		}
	}
	if index >= 0 {
		s.bookmarkCache = append(s.bookmarkCache[:index], s.bookmarkCache[index+1:]...)
	}
	s.mu.Unlock()

	err := s.deps.Bookmarks.Delete(id, s.userID)
	if err != nil && index >= 0 {
		s.mu.Lock()
		s.bookmarkCache = append(s.bookmarkCache, removed)
		s.mu.Unlock()
		s.notify(NoticePersistence, "could not remove bookmark")
	}
	return err
}

// Notes returns the reader's notes for this book, ordered by page.
func (s *Session) Notes() ([]entities.Note, error) {
	if s.userID == entities.AnonymousUserID {
		return nil, nil
	}

	s.mu.Lock()
	if s.notesReady {
		out := make([]entities.Note, len(s.noteCache))
		copy(out, s.noteCache)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	list, err := s.deps.Notes.ListByUserAndBook(s.userID, s.ref.BookID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.noteCache = list
	s.notesReady = true
	out := make([]entities.Note, len(list))
	copy(out, list)
	s.mu.Unlock()
	return out, nil
}

// AddNote attaches a note to the current page. Text is validated before
// any store call; validation failures surface immediately.
func (s *Session) AddNote(text string) (*entities.Note, error) {
	if s.userID == entities.AnonymousUserID {
		s.notify(NoticeValidation, "sign in to add notes")
		return nil, ErrAnonymous
	}
	if strings.TrimSpace(text) == "" {
		s.notify(NoticeValidation, "please enter a note")
		return nil, ErrEmptyNote
	}

	if _, err := s.Notes(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	page := s.currentPage
	if page < 1 {
		s.mu.Unlock()
		s.notify(NoticeValidation, "invalid page number")
		return nil, ErrInvalidPage
	}
	note := entities.Note{
		UserID:     s.userID,
		BookID:     s.ref.BookID,
		PageNumber: page,
		NoteText:   strings.TrimSpace(text),
	}
	s.noteCache = append(s.noteCache, note)
	index := len(s.noteCache) - 1
	s.mu.Unlock()

	err := s.deps.Notes.Create(&note)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.noteCache = append(s.noteCache[:index], s.noteCache[index+1:]...)
		log.Printf("reader: note create failed for user %d book %d: %v", s.userID, s.ref.BookID, err)
		s.notices = append(s.notices, Notice{Kind: NoticePersistence, Message: "could not save note", At: time.Now()})
		return nil, err
	}
	s.noteCache[index] = note
	return &note, nil
}

// RemoveNote deletes a note, restoring the cached entry when the store
// call fails.
func (s *Session) RemoveNote(id uint) error {
	if s.userID == entities.AnonymousUserID {
		return ErrAnonymous
	}

	s.mu.Lock()
	index := -1
	var removed entities.Note
	for i, n := range s.noteCache {
		if n.ID == id {
			index = i
			removed = n
			break
		}
	}
	if index >= 0 {
		s.noteCache = append(s.noteCache[:index], s.noteCache[index+1:]...)
	}
	s.mu.Unlock()

	err := s.deps.Notes.Delete(id, s.userID)
	if err != nil && index >= 0 {
		s.mu.Lock()
		s.noteCache = append(s.noteCache, removed)
		s.mu.Unlock()
		s.notify(NoticePersistence, "could not remove note")
	}
	return err
}

// Reviews lists the validated reviews for this book. Reviews are
// read-through; writing one goes through the catalog API, not the session.
func (s *Session) Reviews() ([]entities.Comment, error) {
	return s.deps.Reviews.ListValidatedByBook(s.ref.BookID)
}
