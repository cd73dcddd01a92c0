// Package agent wraps the Anthropic SDK for the single schema-constrained
// inference call that produces a physiotherapy report.
package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

// maxReportTokens caps the generated output length for one report.
const maxReportTokens = 1000

// maxImageBytes caps the animation download; anything bigger than this is a
// wrong URL, not a skeleton overlay.
const maxImageBytes = 20 << 20

// PhysioAgent makes schema-constrained report calls against Anthropic Claude
// or a compatible provider.
type PhysioAgent struct {
	client    *anthropic.Client
	httpc     *http.Client
	model     string
	maxTokens int
}

// NewPhysioAgent creates an inference client. model defaults to the current
// Sonnet when empty; baseURL overrides the endpoint for proxies.
func NewPhysioAgent(apiKey, model, baseURL string) *PhysioAgent {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &PhysioAgent{
		client:    client,
		httpc:     &http.Client{Timeout: 30 * time.Second},
		model:     model,
		maxTokens: maxReportTokens,
	}
}

// GenerateStructured submits the system persona plus a [text, image] user
// message and forces the model through a single tool carrying the output
// schema. The tool input the endpoint returns is the schema-conforming JSON.
// The image URL is fetched and attached as base64 (the Messages API takes
// image bytes, not references).
func (a *PhysioAgent) GenerateStructured(ctx context.Context, system, prompt, imageURL, schemaName string, schema map[string]interface{}) ([]byte, error) {
	mediaType, imageB64, err := a.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch animation %s: %w", imageURL, err)
	}

	tools := []anthropic.ToolUnionUnionParam{
		anthropic.ToolParam{
			Name:        anthropic.String(schemaName),
			Description: anthropic.String("Record the structured chain-of-thought feedback report."),
			InputSchema: anthropic.F[interface{}](schema),
		},
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.model)),
		MaxTokens: anthropic.F(int64(a.maxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
				anthropic.NewImageBlockBase64(mediaType, imageB64),
			),
		}),
		Tools: anthropic.F(tools),
		ToolChoice: anthropic.F[anthropic.ToolChoiceUnionParam](anthropic.ToolChoiceToolParam{
			Type: anthropic.F(anthropic.ToolChoiceToolTypeTool),
			Name: anthropic.F(schemaName),
		}),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}

	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.ToolUseBlock); ok && b.Name == schemaName {
			log.Debug().
				Str("model", a.model).
				Str("stop_reason", string(resp.StopReason)).
				Int("output_bytes", len(b.Input)).
				Msg("structured inference")
			return []byte(b.Input), nil
		}
	}
	return nil, fmt.Errorf("no structured output in response (stop_reason=%s)", resp.StopReason)
}

// fetchImage downloads the animation reference and returns its media type and
// base64 payload.
func (a *PhysioAgent) fetchImage(ctx context.Context, url string) (mediaType, b64 string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", "", err
	}
	if len(data) > maxImageBytes {
		return "", "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	mediaType = resp.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}
	return mediaType, base64.StdEncoding.EncodeToString(data), nil
}
