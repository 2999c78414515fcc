// Package telegram wraps the Bot API surface this service needs:
// outbound messages, file downloads, and webhook registration.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the Telegram surface consumed by the webhook handler and the
// notifier. Fakes implement it in tests.
type Bot interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMarkdown(ctx context.Context, chatID int64, text string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Config holds Telegram client configuration
type Config struct {
	BotToken   string
	APITimeout time.Duration
}

// Client implements Bot on the real Telegram Bot API
type Client struct {
	bot        *tgbotapi.BotAPI
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Telegram client. The underlying library verifies
// the token with a getMe call, so this fails fast on a bad token.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))

	return &Client{
		bot:        bot,
		httpClient: &http.Client{Timeout: cfg.APITimeout},
		logger:     logger,
	}, nil
}

// SendText sends a plain-text message to a chat
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.send(chatID, text, "")
}

// SendMarkdown sends a MarkdownV2-formatted message to a chat
func (c *Client) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	return c.send(chatID, text, tgbotapi.ModeMarkdownV2)
}

func (c *Client) send(chatID int64, text, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode

	if _, err := c.bot.Send(msg); err != nil {
		c.logger.Error("Failed to send telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// DownloadFile fetches the raw bytes of an uploaded file by file id
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve telegram file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.bot.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download telegram file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read telegram file: %w", err)
	}

	c.logger.Debug("Telegram file downloaded",
		zap.String("file_id", fileID),
		zap.Int("size", len(data)))

	return data, nil
}

// RegisterWebhook points the bot's webhook at url
func (c *Client) RegisterWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}

	if _, err := c.bot.Request(wh); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}

	c.logger.Info("Telegram webhook registered", zap.String("url", url))
	return nil
}

// EscapeMarkdown escapes text for safe inclusion in a MarkdownV2 message
func EscapeMarkdown(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text)
}
