// Package notifications tells the operator about replies and failed passes
// over Discord and Telegram webhooks.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
)

const (
	colorReply = 3447003  // blue
	colorError = 15158332 // red
)

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
	URL         string `json:"url,omitempty"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type discordPayload struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

type telegramPayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Reply describes a comment the bot just posted.
type Reply struct {
	SubmissionID string
	Title        string
	Permalink    string
	TweetURL     string
	CommentID    string
}

type NotificationService struct {
	cfg    config.NotificationsConfig
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

func NewNotificationService(cfg config.NotificationsConfig, client *http.Client, log zerolog.Logger) *NotificationService {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &NotificationService{cfg: cfg, client: client, log: log, now: time.Now}
}

// NotifyReply is a no-op unless notifications and notify_on_reply are on.
// Delivery failures are logged only.
func (ns *NotificationService) NotifyReply(ctx context.Context, r Reply) {
	if !ns.cfg.Enabled || !ns.cfg.NotifyOnReply {
		return
	}

	message := fmt.Sprintf("Mirrored %s in \"%s\" (comment %s)", r.TweetURL, r.Title, r.CommentID)
	link := ""
	if r.Permalink != "" {
		link = "https://www.reddit.com" + r.Permalink
	}

	ns.send(ctx, "Tweet mirrored", message, link, "Submission: "+r.SubmissionID, colorReply)
}

func (ns *NotificationService) NotifyError(ctx context.Context, err error) {
	if !ns.cfg.Enabled || !ns.cfg.NotifyOnError || err == nil {
		return
	}
	ns.send(ctx, "Tweet bot pass failed", err.Error(), "", "", colorError)
}

func (ns *NotificationService) send(ctx context.Context, title, message, link, footer string, color int) {
	if ns.cfg.DiscordWebhook != "" {
		if err := ns.sendDiscord(ctx, title, message, link, footer, color); err != nil {
			ns.log.Warn().Err(err).Msg("failed to send discord notification")
		}
	}
	if ns.cfg.TelegramBotToken != "" && ns.cfg.TelegramChatID != "" {
		text := "<b>" + title + "</b>\n" + message
		if link != "" {
			text += "\n" + link
		}
		if err := ns.sendTelegram(ctx, text); err != nil {
			ns.log.Warn().Err(err).Msg("failed to send telegram notification")
		}
	}
}

func (ns *NotificationService) sendDiscord(ctx context.Context, title, message, link, footer string, color int) error {
	var content string
	if ns.cfg.DiscordMentionID != "" {
		if roleID, found := strings.CutPrefix(ns.cfg.DiscordMentionID, "role:"); found {
			content = fmt.Sprintf("<@&%s>", roleID)
		} else {
			content = fmt.Sprintf("<@%s>", ns.cfg.DiscordMentionID)
		}
	}

	embed := discordEmbed{
		Title:       title,
		Description: message,
		Color:       color,
		Timestamp:   ns.now().Format(time.RFC3339),
		URL:         link,
	}
	embed.Footer.Text = footer

	return ns.postJSON(ctx, ns.cfg.DiscordWebhook, discordPayload{Content: content, Embeds: []discordEmbed{embed}})
}

func (ns *NotificationService) sendTelegram(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(ns.cfg.TelegramAPIURL, "/"), ns.cfg.TelegramBotToken)
	return ns.postJSON(ctx, endpoint, telegramPayload{
		ChatID:    ns.cfg.TelegramChatID,
		Text:      text,
		ParseMode: "HTML",
	})
}

func (ns *NotificationService) postJSON(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ns.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}
