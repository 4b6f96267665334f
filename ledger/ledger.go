// Package ledger remembers which submissions the bot has replied to.
package ledger

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Record is one reply. Only SubmissionID is required; the text file keeps
// nothing else.
type Record struct {
	SubmissionID string
	TweetURL     string
	CommentID    string
}

type Ledger interface {
	Contains(ctx context.Context, submissionID string) (bool, error)
	Append(ctx context.Context, rec Record) error
}

// File is the plain text ledger: one submission id per line, appended to
// and never rewritten.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Contains reads the whole file on every call so that edits made while the
// bot is running are picked up. A missing file is an empty ledger.
func (f *File) Contains(ctx context.Context, submissionID string) (bool, error) {
	ids, err := f.IDs()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == submissionID {
			return true, nil
		}
	}
	return false, nil
}

func (f *File) Append(ctx context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), os.ModePerm); err != nil {
		return errors.Wrap(err, "failed to create ledger directory")
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", f.path)
	}
	defer file.Close()

	if _, err := file.WriteString(rec.SubmissionID + "\n"); err != nil {
		return errors.Wrapf(err, "failed to append to %s", f.path)
	}
	return nil
}

// IDs returns every recorded id in file order.
func (f *File) IDs() ([]string, error) {
	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", f.path)
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		ids = append(ids, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", f.path)
	}
	return ids, nil
}
