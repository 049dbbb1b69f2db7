package agent

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/justinpbarnett/devdeck/internal/llm"
	"github.com/justinpbarnett/devdeck/internal/tagstream"
)

// Section is one completed top-level tag of an agent's answer.
type Section struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Raw     string `json:"raw"`
	// Known is false for tags the agent definition does not list.
	Known bool `json:"known"`
}

type SectionHandler func(Section) error

// ParseSection splits a complete tag into its name and trimmed content.
func ParseSection(tag string) Section {
	s := Section{Raw: tag}
	if !strings.HasPrefix(tag, "<") {
		return s
	}
	end := strings.IndexByte(tag, '>')
	if end < 0 {
		return s
	}
	s.Name = tag[1:end]
	body := tag[end+1:]
	body = strings.TrimSuffix(body, "</"+s.Name+">")
	s.Content = strings.TrimSpace(body)
	return s
}

// Collect pipes src through the tag extractor and reports every section in
// order.
func Collect(ctx context.Context, a *Agent, src tagstream.TextSource, onSection SectionHandler) error {
	return tagstream.Pipe(ctx, src, func(tag string) error {
		s := ParseSection(tag)
		s.Known = a.HasSection(s.Name)
		return onSection(s)
	})
}

// Analyze runs a against projectDir with provider.
func Analyze(ctx context.Context, provider llm.Provider, a *Agent, projectDir string, onSection SectionHandler) error {
	ctx, span := otel.Tracer("devdeck/agent").Start(ctx, "agent.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("devdeck.agent", a.Name),
		attribute.String("devdeck.provider", provider.Name()),
	)

	src, err := provider.Stream(ctx, a.Request(projectDir))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("start %s: %w", a.Name, err)
	}

	sections := 0
	err = Collect(ctx, a, src, func(s Section) error {
		sections++
		return onSection(s)
	})
	span.SetAttributes(attribute.Int("devdeck.sections", sections))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
