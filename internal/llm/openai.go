package llm

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
)

// Rewriter edits one chunk of transcript text.
type Rewriter interface {
	Rewrite(ctx context.Context, chunk string) (string, error)
}

// OpenAIRewriter sends chunks to the OpenAI Responses API with the
// editorial instructions.
type OpenAIRewriter struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAIRewriter builds a rewriter from cfg. Retries are handled by
// RateLimitedCall, so the SDK's own retry loop is disabled.
func NewOpenAIRewriter(cfg config.Config) *OpenAIRewriter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/"))
	}
	return &OpenAIRewriter{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (r *OpenAIRewriter) Rewrite(ctx context.Context, chunk string) (string, error) {
	response, err := r.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        shared.ResponsesModel(r.model),
		Instructions: openai.String(SystemInstruction),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(BuildPrompt(chunk)),
		},
		Temperature: openai.Float(r.temperature),
	})
	if err != nil {
		return "", err
	}
	if response.Status == "incomplete" {
		return "", ErrTruncated
	}
	text := response.OutputText()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
