package ingest

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jraftery/expense-ledger/internal/telegram"
)

// SenderNameFromMessage extracts the submitter's display name from a
// chat message: first plus last name, falling back to the handle,
// falling back to "Unknown".
func SenderNameFromMessage(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return "Unknown"
	}

	name := strings.TrimSpace(strings.TrimSpace(msg.From.FirstName) + " " + strings.TrimSpace(msg.From.LastName))
	if name != "" {
		return name
	}
	if msg.From.UserName != "" {
		return msg.From.UserName
	}
	return "Unknown"
}

// DocumentFromMessage normalizes a chat message into an intake
// document, downloading the attached file. An attachment whose
// declared media type is outside the allow-list comes back as an
// UnsupportedTypeError with no download attempted. Returns (nil, nil)
// for a message with no photo or document attachment, a text-only
// exchange, not an error.
//
// Telegram photo arrays are ordered low-to-high resolution; the last
// entry is the original-quality rendition and always a JPEG.
func DocumentFromMessage(ctx context.Context, msg *tgbotapi.Message, bot telegram.Bot) (*Document, error) {
	var fileID, mimeType, filename string

	switch {
	case len(msg.Photo) > 0:
		fileID = msg.Photo[len(msg.Photo)-1].FileID
		mimeType = "image/jpeg"
		filename = "photo.jpg"
	case msg.Document != nil:
		fileID = msg.Document.FileID
		mimeType = msg.Document.MimeType
		filename = msg.Document.FileName
	default:
		return nil, nil
	}

	// The declared type is already in the update, so an unsupported
	// file is rejected without ever being fetched.
	if !IsSupportedType(mimeType) {
		return nil, &UnsupportedTypeError{MimeType: mimeType}
	}

	data, err := bot.DownloadFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to download chat attachment: %w", err)
	}

	chatID := msg.Chat.ID
	return &Document{
		SenderName: SenderNameFromMessage(msg),
		ChatID:     &chatID,
		Filename:   filename,
		MimeType:   mimeType,
		Data:       data,
	}, nil
}
