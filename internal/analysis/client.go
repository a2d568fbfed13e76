package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"resumecheck/internal/config"
)

// blobReader fetches the stored document the analysis runs against.
type blobReader interface {
	Read(ctx context.Context, objectKey string) ([]byte, error)
}

// Client produces resume feedback through the Gemini API. It sends the stored
// document inline together with the instruction payload and performs no
// retries; the caller decides whether a failure is terminal.
type Client struct {
	genaiClient *genai.Client
	blobs       blobReader
	model       string
}

// NewClient builds the Gemini-backed analysis client.
func NewClient(ctx context.Context, cfg config.AnalysisConfig, blobs blobReader) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("analysis api key is required")
	}
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	return &Client{
		genaiClient: genaiClient,
		blobs:       blobs,
		model:       cfg.Model,
	}, nil
}

// Analyze reads the stored document and asks the model for structured
// feedback. The response is returned as a Message so callers normalize the
// payload shape in one place.
func (c *Client) Analyze(ctx context.Context, resumePath, instructions string) (*Message, error) {
	document, err := c.blobs.Read(ctx, resumePath)
	if err != nil {
		return nil, fmt.Errorf("read stored resume %q: %w", resumePath, err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(document, "application/pdf"),
			genai.NewPartFromText(instructions),
		}, genai.RoleUser),
	}
	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}

	result, err := c.genaiClient.Models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("generate feedback: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	return &Message{Content: TextContent(text)}, nil
}
