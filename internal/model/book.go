package model

import "time"

// Book is a catalog entry. ID is the caller-assigned catalog number.
type Book struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Subject         string    `json:"subject"`
	Semester        int       `json:"semester"`
	PublicationYear int       `json:"publicationYear"`
	ImageURL        *string   `json:"imageUrl"`
	Available       bool      `json:"available"`
	AddedBy         *int64    `json:"addedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Integer book fields are stored as Postgres INTEGER, so requests are capped
// at 2147483647.

// CreateBookRequest is used for adding a book to the catalog
type CreateBookRequest struct {
	ID              int     `json:"id" binding:"required,gt=0,lte=2147483647"`
	Title           string  `json:"title" binding:"required,notblank"`
	Author          string  `json:"author" binding:"required,notblank"`
	Subject         string  `json:"subject" binding:"required,notblank"`
	Semester        int     `json:"semester" binding:"required,gt=0,lte=2147483647"`
	PublicationYear int     `json:"publicationYear" binding:"required,gt=0,lte=2147483647"`
	ImageURL        *string `json:"imageUrl"`
}

// UpdateBookRequest carries a partial update. Availability is owned by the
// issue ledger and cannot be set here.
type UpdateBookRequest struct {
	Title           *string `json:"title,omitempty" binding:"omitempty,notblank"`
	Author          *string `json:"author,omitempty" binding:"omitempty,notblank"`
	Subject         *string `json:"subject,omitempty" binding:"omitempty,notblank"`
	Semester        *int    `json:"semester,omitempty" binding:"omitempty,gt=0,lte=2147483647"`
	PublicationYear *int    `json:"publicationYear,omitempty" binding:"omitempty,gt=0,lte=2147483647"`
	ImageURL        *string `json:"imageUrl,omitempty"`
}

// BookFilters holds the optional search criteria. Text fields match as
// case-insensitive substrings, Semester matches exactly.
type BookFilters struct {
	Title    *string
	Author   *string
	Subject  *string
	Semester *int
}
