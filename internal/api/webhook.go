package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jraftery/expense-ledger/internal/extract"
	"github.com/jraftery/expense-ledger/internal/ingest"
	"go.uber.org/zap"
)

const usageReply = "Send me a receipt photo, or a PDF/image of a receipt, check, or invoice, and I'll record it."

// HandleTelegramWebhook handles POST /webhook/telegram. The HTTP
// response is always a trivial acknowledgment: Telegram redelivers
// failed updates, and everything the submitter needs to know goes out
// through the chat instead.
func (h *Handlers) HandleTelegramWebhook(c *gin.Context) {
	defer c.JSON(http.StatusOK, gin.H{"ok": true})

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Warn("Unparseable webhook update", zap.Error(err))
		return
	}

	msg := update.Message
	if msg == nil {
		return
	}

	ctx := c.Request.Context()
	chatID := msg.Chat.ID

	doc, err := ingest.DocumentFromMessage(ctx, msg, h.bot)
	if err != nil {
		var unsupported *ingest.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			h.replyForIngestError(ctx, chatID, err)
			return
		}
		h.logger.Error("Failed to fetch chat attachment",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		h.reply(ctx, chatID, "I couldn't download that file from Telegram. Please try sending it again.")
		return
	}
	if doc == nil {
		// Plain conversation, nothing to record
		h.reply(ctx, chatID, usageReply)
		return
	}

	record, err := h.coordinator.IngestChat(ctx, *doc)
	if err != nil {
		h.replyForIngestError(ctx, chatID, err)
		return
	}

	if err := h.confirmer.ConfirmReceipt(ctx, record); err != nil {
		h.logger.Error("Failed to send confirmation",
			zap.Int64("chat_id", chatID),
			zap.String("expense_id", record.ID),
			zap.Error(err))
	}
}

// replyForIngestError translates a chat-channel ingestion failure into
// a plain-language message for the submitter.
func (h *Handlers) replyForIngestError(ctx context.Context, chatID int64, err error) {
	var unsupported *ingest.UnsupportedTypeError
	var extractErr *extract.Error

	switch {
	case errors.As(err, &unsupported):
		h.reply(ctx, chatID, "That file type isn't supported. Please send a JPEG, PNG, or PDF.")
	case errors.As(err, &extractErr):
		h.logger.Warn("Chat extraction failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, chatID, "Sorry, I couldn't read that document: "+extractErr.Reason+". Please try a clearer photo or a different file.")
	default:
		h.logger.Error("Chat ingestion failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, chatID, "Something went wrong while recording that expense. Please try again in a bit.")
	}
}

func (h *Handlers) reply(ctx context.Context, chatID int64, text string) {
	if err := h.bot.SendText(ctx, chatID, text); err != nil {
		h.logger.Error("Failed to send chat reply",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
