package dedup

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/ledger"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/reddit"
)

type mockLoader struct{ mock.Mock }

func (m *mockLoader) LoadComments(ctx context.Context, s *reddit.Submission) error {
	args := m.Called(s.ID)
	if fill, ok := args.Get(0).([]*reddit.Comment); ok {
		s.Comments = fill
		s.Loaded = true
	}
	return args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Contains(ctx context.Context, id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) Append(ctx context.Context, rec ledger.Record) error {
	return m.Called(rec).Error(0)
}

const bot = "FleetFlotTheTweetBot"

func TestAlreadyReplied(t *testing.T) {
	tests := []struct {
		name       string
		comments   []*reddit.Comment
		loadErr    error
		inLedger   bool
		ledgerErr  error
		expected   bool
		ledgerUsed bool
	}{
		{
			name:       "fresh thread",
			comments:   []*reddit.Comment{{ID: "c1", Author: "someone"}},
			expected:   false,
			ledgerUsed: true,
		},
		{
			name:     "bot comment at top level",
			comments: []*reddit.Comment{{ID: "c1", Author: "someone"}, {ID: "c2", Author: bot}},
			expected: true,
		},
		{
			name:     "bot name differs in case",
			comments: []*reddit.Comment{{ID: "c1", Author: "fleetflotthetweetbot"}},
			expected: true,
		},
		{
			name: "bot comment nested only",
			comments: []*reddit.Comment{{ID: "c1", Author: "someone", Replies: []*reddit.Comment{
				{ID: "c2", Author: bot},
			}}},
			expected:   false,
			ledgerUsed: true,
		},
		{
			name:       "deleted authors are skipped",
			comments:   []*reddit.Comment{{ID: "c1", Author: ""}},
			expected:   false,
			ledgerUsed: true,
		},
		{
			name:       "only in ledger",
			comments:   []*reddit.Comment{},
			inLedger:   true,
			expected:   true,
			ledgerUsed: true,
		},
		{
			name:     "comments cannot be expanded",
			loadErr:  reddit.ErrArchived,
			expected: true,
		},
		{
			name:       "ledger unreadable",
			comments:   []*reddit.Comment{},
			ledgerErr:  errors.New("permission denied"),
			expected:   true,
			ledgerUsed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &mockLoader{}
			if tt.loadErr != nil {
				loader.On("LoadComments", "s1").Return(nil, tt.loadErr)
			} else {
				loader.On("LoadComments", "s1").Return(tt.comments, nil)
			}
			l := &mockLedger{}
			l.On("Contains", "s1").Return(tt.inLedger, tt.ledgerErr)

			g := NewGuard(loader, l, bot, zerolog.Nop())
			got := g.AlreadyReplied(context.Background(), &reddit.Submission{ID: "s1"})

			assert.Equal(t, tt.expected, got)
			if tt.ledgerUsed {
				l.AssertCalled(t, "Contains", "s1")
			} else {
				l.AssertNotCalled(t, "Contains", mock.Anything)
			}
		})
	}
}

func TestAlreadyRepliedSkipsLoadedThread(t *testing.T) {
	loader := &mockLoader{}
	l := &mockLedger{}
	l.On("Contains", "s1").Return(false, nil)

	s := &reddit.Submission{ID: "s1", Loaded: true, Comments: []*reddit.Comment{{ID: "c1", Author: "x"}}}
	g := NewGuard(loader, l, bot, zerolog.Nop())

	assert.False(t, g.AlreadyReplied(context.Background(), s))
	loader.AssertNotCalled(t, "LoadComments", mock.Anything)
}

func TestAlreadyRepliedWarnsOnIncompleteThread(t *testing.T) {
	var buf bytes.Buffer
	l := &mockLedger{}
	l.On("Contains", "s1").Return(true, nil)

	s := &reddit.Submission{ID: "s1", Loaded: true, Complete: false}
	g := NewGuard(&mockLoader{}, l, bot, zerolog.New(&buf))

	assert.True(t, g.AlreadyReplied(context.Background(), s))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "comment list is incomplete")

	buf.Reset()
	s.Complete = true
	g.AlreadyReplied(context.Background(), s)
	assert.NotContains(t, buf.String(), "incomplete")
}
