package entities

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"index;size:512" json:"title"`
	Author          string         `gorm:"index;size:256" json:"author"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	CategoryID      uint           `gorm:"index" json:"category_id"`
	Category        Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	FilePath        string         `gorm:"size:2048" json:"file_path"`
	CoverImage      string         `gorm:"size:2048" json:"cover_image,omitempty"`
	PublicationYear int            `json:"publication_year,omitempty"`
	PageCount       int            `json:"page_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Comment is a book review. Reviews stay hidden from the catalog until an
// administrator validates them.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	BookID      uint      `gorm:"index" json:"book_id"`
	CommentText string    `gorm:"type:text" json:"comment_text"`
	Rating      int       `json:"rating"` // 1-5 stars
	IsValidated bool      `gorm:"default:false;index" json:"is_validated"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	Book        Book      `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (Book) TableName() string {
	return "books"
}

func (Comment) TableName() string {
	return "comments"
}
