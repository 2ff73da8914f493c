package models

import "time"

// Like is a reaction to a post (PostgreSQL). A user likes a post at most once.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:24;uniqueIndex:idx_like_post_user"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_like_post_user"`
	CreatedAt time.Time `json:"created_at"`
}
