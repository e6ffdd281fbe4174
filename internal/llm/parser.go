package llm

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed parser_prompt.md
var parserPrompt string

var parserTmpl = template.Must(template.New("parser").Parse(parserPrompt))

const parserAgentName = "FoodParser"

// FoodMention is one food named in free text.
type FoodMention struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// ParseResult is the outcome of one parser call.
type ParseResult struct {
	Items []FoodMention
	Meta  AgentMeta
}

// FoodParser turns free text into food mentions with a language model.
type FoodParser struct {
	textGen TextGenerator
}

func NewFoodParser(textGen TextGenerator) *FoodParser {
	return &FoodParser{textGen: textGen}
}

// Parse extracts food mentions from text. Items without a name are dropped;
// a missing unit means grams.
func (p *FoodParser) Parse(ctx context.Context, text string) (ParseResult, error) {
	start := time.Now()

	prompt, err := buildParserPrompt(text)
	if err != nil {
		return ParseResult{}, err
	}

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ParseResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := AgentMeta{
		AgentName: parserAgentName,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}

	items, err := decodeMentions(resp.Content)
	if err != nil {
		return ParseResult{Meta: meta}, fmt.Errorf(
			"failed to parse food parser response %w. Response: %s",
			err,
			resp.Content,
		)
	}
	return ParseResult{Items: items, Meta: meta}, nil
}

func buildParserPrompt(input string) (string, error) {
	var buf bytes.Buffer
	if err := parserTmpl.Execute(&buf, struct{ Input string }{input}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// decodeMentions accepts either {"items": [...]} or a bare array, optionally
// wrapped in a markdown code fence.
func decodeMentions(content string) ([]FoodMention, error) {
	content = stripFence(content)

	var raw []FoodMention
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &raw); err != nil {
			return nil, err
		}
	} else {
		var wrapped struct {
			Items []FoodMention `json:"items"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, err
		}
		raw = wrapped.Items
	}

	items := make([]FoodMention, 0, len(raw))
	for _, m := range raw {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			continue
		}
		m.Unit = strings.TrimSpace(m.Unit)
		if m.Unit == "" {
			m.Unit = "g"
		}
		items = append(items, m)
	}
	return items, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
