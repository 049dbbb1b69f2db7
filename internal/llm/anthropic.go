package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/justinpbarnett/devdeck/internal/config"
	"github.com/justinpbarnett/devdeck/internal/tagstream"
)

// Anthropic streams completions from the Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropic(cfg config.LLMConfig, apiKey string, opts ...option.RequestOption) *Anthropic {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Stream(ctx context.Context, req Request) (tagstream.TextSource, error) {
	model := a.model
	if req.Model != "" {
		model = req.Model
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return &anthropicSource{stream: a.client.Messages.NewStreaming(ctx, params)}, nil
}

type messageStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
	Close() error
}

// anthropicSource yields the text of content_block_delta events and skips
// every other event type.
type anthropicSource struct {
	stream messageStream
	text   string
}

func (s *anthropicSource) Next() bool {
	for s.stream.Next() {
		ev, ok := s.stream.Current().AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
		if !ok || delta.Text == "" {
			continue
		}
		s.text = delta.Text
		return true
	}
	return false
}

func (s *anthropicSource) Text() string { return s.text }
func (s *anthropicSource) Err() error   { return s.stream.Err() }
func (s *anthropicSource) Close() error { return s.stream.Close() }
