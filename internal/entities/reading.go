package entities

import "time"

// ReadingProgress records where a reader stopped in a book. There is at most
// one row per (user, book) pair; writers must update an existing row rather
// than insert a second one.
type ReadingProgress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index:idx_progress_user_book,unique" json:"user_id"`
	BookID      uint      `gorm:"index:idx_progress_user_book,unique" json:"book_id"`
	CurrentPage int       `json:"current_page"`
	LastRead    time.Time `json:"last_read"`
}

// Bookmark marks a single page of a book. A user can hold at most one
// bookmark per page of a book.
type Bookmark struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index:idx_bookmark_user_book_page,unique" json:"user_id"`
	BookID     uint      `gorm:"index:idx_bookmark_user_book_page,unique" json:"book_id"`
	PageNumber int       `gorm:"index:idx_bookmark_user_book_page,unique" json:"page_number"`
	Title      string    `gorm:"size:256" json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

type Note struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	BookID     uint      `gorm:"index" json:"book_id"`
	PageNumber int       `json:"page_number"`
	NoteText   string    `gorm:"type:text" json:"note_text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ReadingProgress) TableName() string {
	return "reading_progress"
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

func (Note) TableName() string {
	return "notes"
}
