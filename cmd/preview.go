package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	previewTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89dceb")).PaddingBottom(1)
	previewBodyStyle  = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#f5c2e7")).
				Padding(0, 1)
	previewErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f38ba8"))
)

type ReplyComposer interface {
	Compose(ctx context.Context, tweetURL, replyTo string) (string, bool)
}

// Preview composes the reply for tweetURL and prints it without posting.
func Preview(ctx context.Context, c ReplyComposer, tweetURL string, out io.Writer) error {
	text, ok := c.Compose(ctx, tweetURL, "preview")
	if !ok {
		fmt.Fprintln(out, previewErrorStyle.Render("Could not build a reply for "+tweetURL+", see the logs."))
		return fmt.Errorf("could not compose a reply for %s", tweetURL)
	}
	fmt.Fprintln(out, RenderPreview(tweetURL, text))
	return nil
}

func RenderPreview(tweetURL, text string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		previewTitleStyle.Render("Reply for "+tweetURL),
		previewBodyStyle.Render(text),
	)
}
