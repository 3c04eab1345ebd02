// Package telegram shares window digests through the Telegram Bot API.
// A digest names the window, its census and the strongest visible events,
// formatted as MarkdownV2. Delivery is retried with a linear backoff.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rewired-gh/quakelens/internal/models"
)

// sender is the part of the bot API the client needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	loc            *time.Location
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration, loc *time.Location) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase, loc)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration, loc *time.Location) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		loc:            loc,
	}, nil
}

// SendDigest sends the summary of one window.
func (c *Client) SendDigest(ctx context.Context, s models.WindowSummary) error {
	msg := tgbotapi.NewMessage(c.chatID, formatDigest(s, c.loc))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to send digest: %w", ctx.Err())
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send digest after %d retries: %w", c.maxRetries, lastErr)
}

// formatDigest renders a summary as a MarkdownV2 message.
func formatDigest(s models.WindowSummary, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("🌏 *Earthquake digest*\n\n")
	period := fmt.Sprintf("%s to %s", s.Start.In(loc).Format("Jan 2, 2006"), s.End.In(loc).Format("Jan 2, 2006"))
	if s.Mode == models.ModeStaticRange {
		fmt.Fprintf(&b, "📅 Range: %s\n", escapeMarkdownV2(period))
	} else {
		fmt.Fprintf(&b, "📅 %s %s: %s\n", escapeMarkdownV2(s.Label), s.Mode.StepLabel(), escapeMarkdownV2(period))
	}
	fmt.Fprintf(&b, "🔢 Earthquakes: *%d* \\(%d shown\\)\n", s.Total, s.Visible)
	if s.Total > 0 {
		fmt.Fprintf(&b, "📈 Strongest: *M%s*\n", escapeMarkdownV2(formatMagnitude(s.MaxMagnitude)))
	}

	if len(s.Strongest) > 0 {
		b.WriteString("\n")
	}
	for i, e := range s.Strongest {
		place := e.Place
		if place == "" {
			place = fmt.Sprintf("%.2f, %.2f", e.Latitude, e.Longitude)
		}
		fmt.Fprintf(&b, "%d\\. *M%s* %s\n", i+1,
			escapeMarkdownV2(formatMagnitude(e.Magnitude)), escapeMarkdownV2(place))
		fmt.Fprintf(&b, "   ⏱ %s, depth %s km\n",
			escapeMarkdownV2(e.OccurredAt.In(loc).Format("2006-01-02 15:04")),
			escapeMarkdownV2(strconv.FormatFloat(e.Depth, 'f', 1, 64)))
	}

	return b.String()
}

func formatMagnitude(m float64) string {
	return strconv.FormatFloat(m, 'f', 1, 64)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
