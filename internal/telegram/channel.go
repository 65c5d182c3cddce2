// Package telegram is the delivery channel: immediate alerts and report
// documents go to one configured chat, with bounded retries and a
// size-aware fallback for oversized documents.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nntexpressinc/safetybot/internal/domain"
	"github.com/nntexpressinc/safetybot/internal/metrics"
)

// ErrDeliveryFailed marks a send abandoned after bounded retries or
// rejected outright by the API.
var ErrDeliveryFailed = errors.New("delivery failed")

// Telegram rejects bot uploads above 50 MB; checked before attempting the
// upload so the common case never round-trips.
const maxDocumentBytes = 50 << 20

type Channel struct {
	bot         *tgbotapi.BotAPI
	chatID      int64
	maxAttempts int
	backoffBase time.Duration
	logger      *slog.Logger
}

// NewChannel connects to the Telegram Bot API. Construction validates the
// token with a getMe round trip.
func NewChannel(token string, chatID int64, logger *slog.Logger) (*Channel, error) {
	return NewChannelWithEndpoint(token, tgbotapi.APIEndpoint, chatID, logger)
}

// NewChannelWithEndpoint points the channel at a non-default API endpoint.
// Tests use this with an httptest server.
func NewChannelWithEndpoint(token, endpoint string, chatID int64, logger *slog.Logger) (*Channel, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	return &Channel{
		bot:         bot,
		chatID:      chatID,
		maxAttempts: 3,
		backoffBase: time.Second,
		logger:      logger,
	}, nil
}

// SendMessage delivers a plain text message to the configured chat.
func (c *Channel) SendMessage(text string) error {
	return c.send("message", tgbotapi.NewMessage(c.chatID, text))
}

// SendDocument uploads a file with a caption. An oversized rejection (local
// pre-check or API 413) degrades to a text-only notice instead of failing.
func (c *Channel) SendDocument(path, caption string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat document: %v", ErrDeliveryFailed, err)
	}
	if info.Size() > maxDocumentBytes {
		c.logger.Warn("document exceeds upload ceiling, sending summary only",
			"path", path,
			"size_bytes", info.Size(),
		)
		return c.sendFallback(caption)
	}

	doc := tgbotapi.NewDocument(c.chatID, tgbotapi.FilePath(path))
	doc.Caption = caption

	err = c.send("document", doc)
	if err != nil && isOversized(err) {
		c.logger.Warn("document rejected as too large, sending summary only", "path", path)
		return c.sendFallback(caption)
	}
	return err
}

// Alert delivers the immediate notification for one archived record.
func (c *Channel) Alert(ctx context.Context, ev domain.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return c.SendMessage(FormatAlert(ev))
}

// Healthy verifies the bot token and connectivity with a getMe round trip.
func (c *Channel) Healthy(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.GetMe(); err != nil {
		return fmt.Errorf("telegram unreachable: %w", err)
	}
	return nil
}

func (c *Channel) sendFallback(caption string) error {
	return c.send("fallback summary",
		tgbotapi.NewMessage(c.chatID, caption+"\n\nReport file too large to upload; summary only."))
}

// send retries transport errors with doubling backoff. API-level errors
// are returned immediately: the request reached Telegram and was rejected,
// repeating it verbatim cannot succeed.
func (c *Channel) send(what string, msg tgbotapi.Chattable) error {
	var lastErr error
	delay := c.backoffBase

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(delay)
			delay *= 2
		}

		_, err := c.bot.Send(msg)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("send recovered", "kind", what, "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			metrics.DeliveryFailures.Inc()
			return fmt.Errorf("%w: %s rejected by API: %w", ErrDeliveryFailed, what, err)
		}

		c.logger.Warn("send attempt failed",
			"kind", what,
			"attempt", attempt,
			"error", err,
		)
	}

	metrics.DeliveryFailures.Inc()
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrDeliveryFailed, what, c.maxAttempts, lastErr)
}

func isOversized(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 413 {
			return true
		}
		return strings.Contains(strings.ToLower(apiErr.Message), "too large")
	}
	return strings.Contains(strings.ToLower(err.Error()), "too large")
}
