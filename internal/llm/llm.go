package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/lchuang/mockexam/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the API endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// Hint asks for a nudge toward the answer without giving it away. The prompt
// deliberately omits the answer letters so the model cannot leak them
// verbatim.
func (c *Client) Hint(ctx context.Context, q model.SampledQuestion) (string, error) {
	return c.complete(ctx, buildHintPrompt(q), 0.7)
}

// Explain asks for a walkthrough of why the correct answer is correct, for
// review after grading.
func (c *Client) Explain(ctx context.Context, q model.SampledQuestion) (string, error) {
	return c.complete(ctx, buildExplainPrompt(q), 0.3)
}

// Summarize reviews a graded attempt and points out the topics the incorrect
// answers cluster around.
func (c *Client) Summarize(ctx context.Context, rows []model.ResultRow) (string, error) {
	return c.complete(ctx, buildSummaryPrompt(rows), 0.3)
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildHintPrompt(q model.SampledQuestion) string {
	var sb strings.Builder
	sb.WriteString("You are a tutor helping a student work through a practice exam question.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")
	sb.WriteString("OPTIONS:\n")
	for _, c := range q.Choices {
		sb.WriteString(c.Letter + ". " + c.Text + "\n")
	}
	if q.Explanation != "" {
		sb.WriteString("\nBACKGROUND (not shown to student):\n" + q.Explanation + "\n")
	}
	sb.WriteString("\nGive ONE short hint that points the student in the right direction.\n")
	sb.WriteString("Do NOT name or describe the correct option. Do NOT eliminate options for the student.\n")
	return sb.String()
}

func buildExplainPrompt(q model.SampledQuestion) string {
	var sb strings.Builder
	sb.WriteString("You are a tutor reviewing a practice exam question with a student.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")
	sb.WriteString("OPTIONS:\n")
	for _, c := range q.Choices {
		sb.WriteString(c.Letter + ". " + c.Text + "\n")
	}
	sb.WriteString("\nCORRECT ANSWER: " + strings.Join(q.Answer, ", ") + "\n")
	if q.Explanation != "" {
		sb.WriteString("\nREFERENCE EXPLANATION:\n" + q.Explanation + "\n")
	}
	sb.WriteString("\nExplain why the correct answer is correct and why the other options are not.\n")
	sb.WriteString("Keep it concise and answer in the language the question is written in.\n")
	return sb.String()
}

func buildSummaryPrompt(rows []model.ResultRow) string {
	var sb strings.Builder
	sb.WriteString("You are a tutor reviewing a student's graded practice exam.\n\n")
	sb.WriteString("RESULTS:\n")
	for _, r := range rows {
		verdict := "WRONG"
		if r.Correct {
			verdict = "OK"
		}
		sb.WriteString(fmt.Sprintf("%d. [%s] (%s) %s | submitted: %s, expected: %s\n",
			r.Position, verdict, r.Tag, r.Question, r.Submitted, r.Expected))
	}
	sb.WriteString("\nSummarize how the student did. Group the mistakes by topic, ")
	sb.WriteString("name the areas that need review, and suggest what to study next.\n")
	sb.WriteString("Answer in the language the questions are written in.\n")
	return sb.String()
}
