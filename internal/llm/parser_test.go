package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type MockTextGenerator struct {
	content string
	err     error
	prompt  string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	m.prompt = prompt
	if m.err != nil {
		return ContentResponse{}, m.err
	}
	return ContentResponse{
		Content: m.content,
		Usage:   TokenUsage{Model: "mock", PromptTokens: 100, CompletionTokens: 20},
	}, nil
}

func TestFoodParser_Parse(t *testing.T) {
	ctx := context.Background()

	t.Run("object response", func(t *testing.T) {
		gen := &MockTextGenerator{content: `{"items": [
			{"name": "Magerquark", "amount": 250, "unit": "g"},
			{"name": " Ei ", "amount": 2, "unit": "Stück"},
			{"name": "", "amount": 1, "unit": "g"},
			{"name": "Butter", "amount": 10}
		]}`}
		res, err := NewFoodParser(gen).Parse(ctx, "Quark, zwei Eier und Butter")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if len(res.Items) != 3 {
			t.Fatalf("Expected 3 items, got %d", len(res.Items))
		}
		if res.Items[1] != (FoodMention{Name: "Ei", Amount: 2, Unit: "Stück"}) {
			t.Errorf("unexpected item %+v", res.Items[1])
		}
		if res.Items[2].Unit != "g" {
			t.Errorf("Expected default unit g, got %q", res.Items[2].Unit)
		}
		if res.Meta.AgentName != "FoodParser" || res.Meta.Usage.PromptTokens != 100 {
			t.Errorf("unexpected meta %+v", res.Meta)
		}
		if !strings.Contains(gen.prompt, "Quark, zwei Eier und Butter") || !strings.Contains(gen.prompt, "# Food Parser") {
			t.Error("prompt does not contain the input")
		}
	})

	t.Run("fenced array response", func(t *testing.T) {
		gen := &MockTextGenerator{content: "```json\n[{\"name\": \"Apfel\", \"amount\": 1, \"unit\": \"Stück\"}]\n```"}
		res, err := NewFoodParser(gen).Parse(ctx, "ein Apfel")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if len(res.Items) != 1 || res.Items[0].Name != "Apfel" {
			t.Errorf("unexpected items %+v", res.Items)
		}
	})

	t.Run("malformed response keeps usage", func(t *testing.T) {
		gen := &MockTextGenerator{content: "Ich habe leider nichts verstanden."}
		res, err := NewFoodParser(gen).Parse(ctx, "???")
		if err == nil {
			t.Fatal("Expected an error")
		}
		if res.Meta.Usage.PromptTokens != 100 {
			t.Errorf("Expected usage to be kept, got %+v", res.Meta)
		}
	})

	t.Run("generator error", func(t *testing.T) {
		gen := &MockTextGenerator{err: errors.New("quota")}
		if _, err := NewFoodParser(gen).Parse(ctx, "Apfel"); err == nil {
			t.Fatal("Expected an error")
		}
	})
}
