package llm

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed feedback_prompt.md
var feedbackPrompt string

var feedbackTmpl = template.Must(template.New("feedback").Parse(feedbackPrompt))

const feedbackAgentName = "MealFeedback"

// ErrEmptyFeedback is returned when the model answered with no text.
var ErrEmptyFeedback = errors.New("model returned empty feedback")

// FeedbackItem is one item of the meal being commented on.
type FeedbackItem struct {
	Name   string
	Amount float64
	Unit   string
}

// NutrientStatus is a nutrient outside its band today.
type NutrientStatus struct {
	Name       string
	Percentage float64
}

// FeedbackRequest is the context handed to the model after a meal is logged.
type FeedbackRequest struct {
	Sex   string
	Goal  string
	Items []FeedbackItem
	// Intake holds today's non-zero totals keyed by nutrient name.
	Intake map[string]float64
	Low    []NutrientStatus
	High   []NutrientStatus
}

// FeedbackResult is the outcome of one feedback call.
type FeedbackResult struct {
	Text string
	Meta AgentMeta
}

// FeedbackWriter asks a language model for a short comment on a meal.
type FeedbackWriter struct {
	textGen TextGenerator
}

func NewFeedbackWriter(textGen TextGenerator) *FeedbackWriter {
	return &FeedbackWriter{textGen: textGen}
}

// Write renders the prompt for req and returns the model's comment.
func (w *FeedbackWriter) Write(ctx context.Context, req FeedbackRequest) (FeedbackResult, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := feedbackTmpl.Execute(&buf, req); err != nil {
		return FeedbackResult{}, fmt.Errorf("failed to render feedback prompt: %w", err)
	}

	resp, err := w.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return FeedbackResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := AgentMeta{
		AgentName: feedbackAgentName,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	text := decodeFeedback(resp.Content)
	if text == "" {
		return FeedbackResult{Meta: meta}, ErrEmptyFeedback
	}
	return FeedbackResult{Text: text, Meta: meta}, nil
}

// decodeFeedback reads {"feedback": "..."} and falls back to the raw text
// for models that ignore the requested format.
func decodeFeedback(content string) string {
	content = stripFence(content)
	if strings.HasPrefix(content, "{") {
		var out struct {
			Feedback string `json:"feedback"`
		}
		if err := json.Unmarshal([]byte(content), &out); err == nil {
			return strings.TrimSpace(out.Feedback)
		}
	}
	return content
}
