package models

import (
	"time"
)

// Reply is a top-level comment the bot posted under a submission.
type Reply struct {
	ID           uint   `gorm:"primaryKey"`
	SubmissionID string `gorm:"uniqueIndex;not null"`
	TweetURL     string
	CommentID    string
	CreatedAt    time.Time
}

// TableName overrides the table name
func (Reply) TableName() string {
	return "replies"
}
