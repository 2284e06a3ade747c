package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User status values
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
	UserStatusClosed  = "closed"
)

// User roles
const (
	RoleStudent   = "student"
	RoleLibrarian = "librarian"
	RoleAdmin     = "admin"
)

type User struct {
	ID                 string    `gorm:"primaryKey;type:uuid" json:"id"`
	IdentificationCode string    `gorm:"uniqueIndex;not null" json:"identification_code"`
	Password           string    `gorm:"column:password_hash;not null" json:"-"` // Not shown in JSON
	FullName           string    `gorm:"not null" json:"full_name"`
	Faculty            string    `gorm:"not null" json:"faculty"`
	Department         string    `gorm:"not null" json:"department"`
	Email              string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone              string    `json:"phone,omitempty"`
	IDExpiration       time.Time `gorm:"not null" json:"id_expiration"`
	ProfileImage       string    `json:"profile_image,omitempty"`
	QRCode             string    `gorm:"uniqueIndex" json:"qr_code"` // JSON payload encoded on the physical card
	Status             string    `gorm:"default:'active';not null" json:"status"`
	Role               string    `gorm:"default:'student';not null" json:"role"`
	Verified           bool      `gorm:"default:false;not null" json:"verified"`

	// Fines is a denormalized running balance: the sum of this user's fines
	// with status outstanding or overdue. Written only by the lending and
	// fine services, inside the same database transaction as the fine rows.
	Fines float64 `gorm:"default:0;not null" json:"fines"`

	// BorrowedBooks mirrors the user's open transactions for fast
	// eligibility checks. Same write discipline as Fines.
	BorrowedBooks []BorrowedBook `gorm:"foreignKey:UserID" json:"borrowed_books,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}

// IsIDValid reports whether the user's credential window is still open.
func (user *User) IsIDValid(now time.Time) bool {
	return user.IDExpiration.After(now) && user.Status == UserStatusActive
}

// BorrowedBook is one entry of the user's denormalized borrow list.
type BorrowedBook struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string     `gorm:"type:uuid;not null;index" json:"user_id"`
	BookID        string     `gorm:"type:uuid;not null;index" json:"book_id"`
	TransactionID string     `gorm:"type:uuid;not null;index" json:"transaction_id"`
	BorrowDate    time.Time  `gorm:"not null" json:"borrow_date"`
	DueDate       time.Time  `gorm:"not null" json:"due_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`
	Status        string     `gorm:"default:'borrowed';not null" json:"status"`
}

func (b *BorrowedBook) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}

func (BorrowedBook) TableName() string {
	return "borrowed_books"
}
