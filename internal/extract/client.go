package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jraftery/expense-ledger/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config holds extraction client configuration
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client extracts structured expense data from document images and PDFs
// using a vision-capable chat model.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// NewClient creates a new extraction client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Extract sends one document to the vision model and parses the
// structured result. Failures come back as *Error so callers can
// distinguish extraction problems from infrastructure ones.
func (c *Client) Extract(ctx context.Context, data []byte, mimeType string) (*models.ExtractionResult, error) {
	c.logger.Info("Extracting document data",
		zap.String("mime_type", mimeType),
		zap.Int("size", len(data)))

	images, err := c.prepareImages(data, mimeType)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: documentPrompt(),
	})
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", img.mimeType, base64.StdEncoding.EncodeToString(img.data)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
	})
	if err != nil {
		c.logger.Error("Vision API call failed", zap.Error(err))
		return nil, &Error{Reason: "the document analysis service is unavailable", Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{Reason: "the document analysis service returned nothing"}
	}

	result, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("Failed to parse extraction response",
			zap.Error(err),
			zap.String("content", resp.Choices[0].Message.Content))
		return nil, err
	}

	c.logger.Info("Document extracted",
		zap.String("document_type", string(result.DocumentType)),
		zap.Float64("confidence", result.Confidence))

	return result, nil
}

type visionImage struct {
	data     []byte
	mimeType string
}

// prepareImages normalizes a document into the image list the vision
// model accepts. PDFs are rasterized page by page; images pass through.
func (c *Client) prepareImages(data []byte, mimeType string) ([]visionImage, error) {
	if mimeType != "application/pdf" {
		return []visionImage{{data: data, mimeType: mimeType}}, nil
	}

	pages, err := renderPDFPages(data)
	if err != nil {
		c.logger.Error("Failed to render PDF", zap.Error(err))
		return nil, &Error{Reason: "the PDF could not be read", Err: err}
	}

	images := make([]visionImage, 0, len(pages))
	for _, page := range pages {
		images = append(images, visionImage{data: page, mimeType: "image/jpeg"})
	}
	return images, nil
}
