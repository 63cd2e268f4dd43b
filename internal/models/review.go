// internal/models/review.go
package models

import "time"

// Review is one user's rating and comment for one book. A user keeps at most
// one review per book; resubmitting replaces the previous one.
type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"uniqueIndex:idx_reviews_user_book;not null"`
	BookID     uint      `json:"book_id" gorm:"uniqueIndex:idx_reviews_user_book;not null"`
	User       *User     `json:"user,omitempty"`
	Book       *Book     `json:"book,omitempty"`
	Rating     int       `json:"rating" gorm:"not null"` // 1..5
	Comment    string    `json:"comment,omitempty" gorm:"type:text"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Review) TableName() string { return "reviews" }

// Favorite marks a book saved by a user.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_favorites_user_book;not null"`
	BookID    uint      `json:"book_id" gorm:"uniqueIndex:idx_favorites_user_book;not null"`
	Book      *Book     `json:"book,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Favorite) TableName() string { return "favorites" }
