package model

import (
	"time"

	"github.com/google/uuid"
)

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Principal is the authenticated actor an operation runs on behalf of.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanActOn reports whether p owns the resource of ownerID or is an admin.
func (p Principal) CanActOn(ownerID uuid.UUID) bool {
	return p.IsAdmin() || p.UserID == ownerID
}

type Genre struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

type Book struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Author          string     `json:"author" db:"author"`
	ISBN            string     `json:"isbn" db:"isbn"`
	PublicationYear int        `json:"publicationYear" db:"publication_year"`
	Publisher       string     `json:"publisher" db:"publisher"`
	Description     string     `json:"description" db:"description"`
	Language        string     `json:"language" db:"language"`
	PageCount       int        `json:"pageCount" db:"page_count"`
	GenreID         *uuid.UUID `json:"genreId" db:"genre_id"`
	GenreName       *string    `json:"genre,omitempty" db:"genre_name"`
	TotalCopies     int        `json:"totalCopies" db:"total_copies"`
	AvailableCopies int        `json:"availableCopies" db:"available_copies"`
	EbookFile       *string    `json:"ebookFile" db:"ebook_file"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type BookFilter struct {
	Title  string
	Author string
	Genre  string
	Page   int
	Size   int
}

type BookInput struct {
	Title           string     `json:"title" validate:"required,max=255"`
	Author          string     `json:"author" validate:"required,max=255"`
	ISBN            string     `json:"isbn" validate:"required,max=32"`
	PublicationYear int        `json:"publicationYear" validate:"gte=0"`
	Publisher       string     `json:"publisher"`
	Description     string     `json:"description"`
	Language        string     `json:"language"`
	PageCount       int        `json:"pageCount" validate:"gte=0"`
	GenreID         *uuid.UUID `json:"genreId"`
	TotalCopies     int        `json:"totalCopies" validate:"gte=0"`
	AvailableCopies *int       `json:"availableCopies" validate:"omitempty,gte=0"`
	EbookFile       *string    `json:"ebookFile"`
}

type BorrowingStatus string

const (
	StatusBorrowed BorrowingStatus = "BORROWED"
	StatusReturned BorrowingStatus = "RETURNED"
	StatusOverdue  BorrowingStatus = "OVERDUE"
)

func (s BorrowingStatus) Valid() bool {
	switch s {
	case StatusBorrowed, StatusReturned, StatusOverdue:
		return true
	}
	return false
}

// Outstanding reports whether a borrowing in status s still holds a copy.
func (s BorrowingStatus) Outstanding() bool {
	return s == StatusBorrowed || s == StatusOverdue
}

// CanTransitionTo lists the only legal moves: BORROWED->RETURNED,
// BORROWED->OVERDUE and OVERDUE->RETURNED.
func (s BorrowingStatus) CanTransitionTo(next BorrowingStatus) bool {
	switch s {
	case StatusBorrowed:
		return next == StatusReturned || next == StatusOverdue
	case StatusOverdue:
		return next == StatusReturned
	}
	return false
}

type Borrowing struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"userId" db:"user_id"`
	BookID     uuid.UUID       `json:"bookId" db:"book_id"`
	Status     BorrowingStatus `json:"status" db:"status"`
	BorrowDate time.Time       `json:"borrowDate" db:"borrow_date"`
	DueDate    time.Time       `json:"dueDate" db:"due_date"`
	ReturnDate *time.Time      `json:"returnDate" db:"return_date"`
	BookTitle  *string         `json:"bookTitle,omitempty" db:"book_title"`
	UserName   *string         `json:"userName,omitempty" db:"user_name"`
	Overdue    bool            `json:"overdue" db:"-"`
}

// IsOverdue is computed on read: an outstanding borrowing is overdue once now passes its due date.
func (b Borrowing) IsOverdue(now time.Time) bool {
	if b.Status == StatusOverdue {
		return true
	}
	return b.Status == StatusBorrowed && b.ReturnDate == nil && now.After(b.DueDate)
}

type CreateBorrowingRequest struct {
	BookID  uuid.UUID  `json:"bookId" validate:"required"`
	DueDate *time.Time `json:"dueDate"`
}

type UpdateBorrowingStatusRequest struct {
	Status BorrowingStatus `json:"status" validate:"required,oneof=BORROWED RETURNED OVERDUE"`
}

type WishlistItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	BookID    uuid.UUID `json:"bookId" db:"book_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type WishlistRequest struct {
	BookID uuid.UUID `json:"bookId" validate:"required"`
}

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	BookID    uuid.UUID `json:"bookId" db:"book_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	UserName  *string   `json:"userName,omitempty" db:"user_name"`
	BookTitle *string   `json:"bookTitle,omitempty" db:"book_title"`
}

type CreateReviewRequest struct {
	BookID  uuid.UUID `json:"bookId" validate:"required"`
	Rating  int       `json:"rating"`
	Comment string    `json:"comment" validate:"max=2000"`
}

type UpdateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	Name          string    `json:"name" db:"name"`
	Role          Role      `json:"role" db:"role"`
	Avatar        *string   `json:"avatar" db:"avatar"`
	Bio           *string   `json:"bio" db:"bio"`
	EmailVerified bool      `json:"emailVerified" db:"email_verified"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

type UserCreateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=255"`
}

type AuthRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type UpdateProfileRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=255"`
	Bio    *string `json:"bio" validate:"omitempty,max=2000"`
	Avatar *string `json:"avatar" validate:"omitempty,max=1024"`
}

type UserStats struct {
	BorrowedBooks int `json:"borrowedBooks"`
	WishlistCount int `json:"wishListCount"`
}

type Stats struct {
	UserID      uuid.UUID `json:"userId" db:"user_id"`
	LastUpdated time.Time `json:"lastUpdated" db:"last_updated"`
	Borrowed    int       `json:"borrowed" db:"borrowed"`
	Returned    int       `json:"returned" db:"returned"`
	Outstanding int       `json:"outstanding" db:"outstanding"`
	Deleted     int       `json:"deleted" db:"deleted"`
}

type StatsInfo struct {
	Data []Stats `json:"data"`
}
