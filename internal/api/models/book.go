package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Book struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	Title           string    `gorm:"not null" json:"title"`
	Author          string    `gorm:"not null" json:"author"`
	ISBN            string    `gorm:"uniqueIndex;not null" json:"isbn"`
	Publisher       string    `json:"publisher,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	Category        string    `gorm:"not null;index" json:"category"`
	TotalCopies     int       `gorm:"not null" json:"total_copies"`
	AvailableCopies int       `gorm:"not null" json:"available_copies"`
	Shelf           string    `json:"shelf,omitempty"`
	Row             string    `json:"row,omitempty"`
	Description     string    `json:"description,omitempty"`
	Image           string    `json:"image,omitempty"` // URL or path to book cover image
	IsActive        bool      `gorm:"default:true;not null" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a Book
func (b *Book) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}

func (Book) TableName() string {
	return "books"
}
