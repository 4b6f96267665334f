package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/db/models"
)

// ReplyRepository defines the interface for reply operations
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	ExistsBySubmissionID(ctx context.Context, submissionID string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// GormReplyRepository implements ReplyRepository using GORM
type GormReplyRepository struct {
	db *gorm.DB
}

func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &GormReplyRepository{db: db}
}

// Create inserts the reply, leaving an existing row for the same submission
// untouched.
func (r *GormReplyRepository) Create(ctx context.Context, reply *models.Reply) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "submission_id"}}, DoNothing: true}).
		Create(reply).Error
}

func (r *GormReplyRepository) ExistsBySubmissionID(ctx context.Context, submissionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reply{}).Where("submission_id = ?", submissionID).Count(&count).Error
	return count > 0, err
}

func (r *GormReplyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reply{}).Count(&count).Error
	return count, err
}
