package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/db/models"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/db/repository"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/ledger"
)

// ReplyService is the sqlite backed ledger.
type ReplyService struct {
	repo repository.ReplyRepository
	log  zerolog.Logger
}

var _ ledger.Ledger = (*ReplyService)(nil)

func NewReplyService(repo repository.ReplyRepository, log zerolog.Logger) *ReplyService {
	return &ReplyService{repo: repo, log: log}
}

func (s *ReplyService) Contains(ctx context.Context, submissionID string) (bool, error) {
	exists, err := s.repo.ExistsBySubmissionID(ctx, submissionID)
	if err != nil {
		return false, errors.Wrap(err, "failed to look up reply")
	}
	return exists, nil
}

func (s *ReplyService) Append(ctx context.Context, rec ledger.Record) error {
	reply := &models.Reply{
		SubmissionID: rec.SubmissionID,
		TweetURL:     rec.TweetURL,
		CommentID:    rec.CommentID,
	}
	if err := s.repo.Create(ctx, reply); err != nil {
		return errors.Wrapf(err, "failed to record reply to %s", rec.SubmissionID)
	}
	return nil
}

// ImportFile copies the ids of a text ledger into the database the first
// time the database is used, so switching backends does not cause double
// replies.
func (s *ReplyService) ImportFile(ctx context.Context, file *ledger.File) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to count replies")
	}
	if count > 0 {
		return nil
	}

	ids, err := file.IDs()
	if err != nil {
		return err
	}
	imported := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := s.repo.Create(ctx, &models.Reply{SubmissionID: id}); err != nil {
			return errors.Wrapf(err, "failed to import %s", id)
		}
		imported++
	}
	if imported > 0 {
		s.log.Info().Int("count", imported).Str("file", file.Path()).Msg("imported reply log into database")
	}
	return nil
}
