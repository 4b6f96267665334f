package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileMissingIsEmpty(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "logs", "comment_log.log"))

	found, err := f.Contains(context.Background(), "abc123")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileAppendAndContains(t *testing.T) {
	ctx := context.Background()
	f := NewFile(filepath.Join(t.TempDir(), "logs", "comment_log.log"))

	require.NoError(t, f.Append(ctx, Record{SubmissionID: "abc123"}))
	require.NoError(t, f.Append(ctx, Record{SubmissionID: "def456", TweetURL: "ignored"}))

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, "abc123\ndef456\n", string(data))

	tests := []struct {
		id       string
		expected bool
	}{
		{"abc123", true},
		{"def456", true},
		{"abc12", false},
		{"abc1234", false},
		{"", false},
	}
	for _, tt := range tests {
		found, err := f.Contains(ctx, tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, found, tt.id)
	}
}

func TestFileContainsSeesExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comment_log.log")
	require.NoError(t, os.WriteFile(path, []byte("first\r\nsecond\n"), 0o644))

	f := NewFile(path)
	found, err := f.Contains(context.Background(), "first")
	require.NoError(t, err)
	assert.True(t, found)

	ids, err := f.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, ids)
}

func TestFileUnreadable(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(dir)

	_, err := f.Contains(context.Background(), "abc")
	assert.Error(t, err)
}
