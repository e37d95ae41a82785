// Package vision sends crystal photos to a Gemini vision model and returns
// the model's raw text answer.
package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kalambet/grimoire/internal/crystal"
)

// ErrNotConfigured is returned by Describe when no API key was configured.
var ErrNotConfigured = errors.New("vision model not configured")

const temperature = 0.2

// Image is one photo to identify.
type Image struct {
	Data        []byte
	MIMEType    string // sniffed from Data when empty
	UserContext map[string]any
}

// Config holds the settings for New.
type Config struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	// BaseURL overrides the Gemini endpoint.
	BaseURL string
}

// Client is a Gemini vision client. A Client without an API key is valid:
// it reports Configured() == false and every Describe fails with
// ErrNotConfigured.
type Client struct {
	genai   *genai.Client
	model   string
	limiter *limiter
}

// New creates a Client from cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{model: cfg.Model, limiter: newLimiter(cfg.RequestsPerMinute)}
	if cfg.APIKey == "" {
		return c, nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	c.genai = gc
	return c, nil
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c != nil && c.genai != nil
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// Describe asks the model to identify the crystal in img and returns its
// raw text answer, which is expected to be a JSON object.
func (c *Client) Describe(ctx context.Context, img Image) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", transportError(err)
	}

	mime := img.MIMEType
	if mime == "" {
		mime = http.DetectContentType(img.Data)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(BuildPrompt(img.UserContext)),
		genai.NewPartFromBytes(img.Data, mime),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", transportError(ctxErr)
		}
		return "", c.upstreamError(err)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		msg := fb.BlockReasonMessage
		if msg == "" {
			msg = string(fb.BlockReason)
		}
		return "", &crystal.UpstreamError{Status: http.StatusBadRequest, Message: "request blocked by safety filters: " + msg}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &crystal.UpstreamError{Message: "empty response"}
	}
	slog.Debug("vision model answered", "model", c.model, "bytes", len(text))
	return text, nil
}

func (c *Client) upstreamError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			c.limiter.backoff(0)
		}
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Status
		}
		return &crystal.UpstreamError{Status: apiErr.Code, Message: msg, Err: err}
	}
	return transportError(err)
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &crystal.UpstreamError{Status: http.StatusGatewayTimeout, Message: "model request timed out", Err: err}
	}
	return &crystal.UpstreamError{Message: err.Error(), Err: err}
}
