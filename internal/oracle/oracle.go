// Package oracle wraps the external AI writing evaluator. The engine never
// judges writing quality itself; it submits the task and answer, receives a
// structured rubric result, and degrades gracefully when a single response
// is malformed.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/fluentprep/fluentprep-backend/internal/model"
)

// CriterionNames are the four rubric criteria every evaluation reports on.
var CriterionNames = []string{
	"Task Achievement",
	"Coherence and Cohesion",
	"Lexical Resource",
	"Grammatical Range and Accuracy",
}

// NeutralBand substitutes for a task whose oracle response could not be
// parsed, so one bad response degrades that task instead of failing the
// whole submission.
const NeutralBand = 5.0

// chatCompleter is the slice of the OpenAI client the oracle needs.
// *openai.Client satisfies it; tests substitute a stub.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client evaluates writing tasks against an OpenAI-compatible API.
type Client struct {
	api   chatCompleter
	model string
	log   zerolog.Logger
}

// New creates an oracle client. baseURL may be empty for the default API host.
func New(baseURL, apiKey, modelName string, log zerolog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: modelName,
		log:   log.With().Str("component", "oracle").Logger(),
	}
}

// rubricPayload is the JSON shape the oracle is instructed to return.
type rubricPayload struct {
	Band     float64 `json:"band"`
	Criteria []struct {
		Name    string  `json:"name"`
		Score   float64 `json:"score"`
		Comment string  `json:"comment"`
	} `json:"criteria"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Corrections   []string `json:"corrections"`
	Summary       string   `json:"summary"`
	CorrectedText string   `json:"corrected_text"`
}

// EvaluateTask grades one writing task. A transport or API failure is
// returned as an error (the caller treats the whole batch as failed);
// an unparsable response body is NOT an error; the task falls back to
// the neutral rubric result instead.
func (c *Client) EvaluateTask(ctx context.Context, task model.WritingTask) (model.RubricResult, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: buildTaskPrompt(task)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return model.RubricResult{}, fmt.Errorf("oracle call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.RubricResult{}, fmt.Errorf("oracle returned no choices")
	}

	return c.parseResult(resp.Choices[0].Message.Content), nil
}

// parseResult decodes a raw oracle response, substituting the neutral
// result when the body is malformed.
func (c *Client) parseResult(raw string) model.RubricResult {
	var payload rubricPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload.Band <= 0 {
		c.log.Warn().Str("raw", truncate(raw, 200)).Msg("Malformed oracle response, using neutral result")
		return NeutralResult()
	}

	criteria := make([]model.CriterionScore, 0, len(payload.Criteria))
	for _, cr := range payload.Criteria {
		criteria = append(criteria, model.CriterionScore{
			Name:    cr.Name,
			Score:   cr.Score,
			Comment: cr.Comment,
		})
	}

	return model.RubricResult{
		Band:          payload.Band,
		Criteria:      criteria,
		Strengths:     payload.Strengths,
		Weaknesses:    payload.Weaknesses,
		Corrections:   payload.Corrections,
		Summary:       payload.Summary,
		CorrectedText: payload.CorrectedText,
	}
}

// NeutralResult is the graceful-degradation rubric: neutral band, every
// criterion scored 5 with no commentary.
func NeutralResult() model.RubricResult {
	criteria := make([]model.CriterionScore, len(CriterionNames))
	for i, name := range CriterionNames {
		criteria[i] = model.CriterionScore{Name: name, Score: 5}
	}
	return model.RubricResult{
		Band:        NeutralBand,
		Criteria:    criteria,
		Strengths:   []string{},
		Weaknesses:  []string{},
		Corrections: []string{},
	}
}

func buildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are an examiner grading a candidate's written answer on a 0-9 band scale.\n")
	sb.WriteString("Assess the answer against these four criteria: ")
	sb.WriteString(strings.Join(CriterionNames, ", "))
	sb.WriteString(".\n\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"band": <number 0-9, halves allowed>, "criteria": [{"name": "<criterion>", "score": <0-9>, "comment": "<brief comment>"}], "strengths": ["..."], "weaknesses": ["..."], "corrections": ["..."], "summary": "<short summary>", "corrected_text": "<improved version of the answer>"}`)
	sb.WriteString("\n")
	return sb.String()
}

func buildTaskPrompt(task model.WritingTask) string {
	var sb strings.Builder
	sb.WriteString("TASK INSTRUCTION:\n" + task.Instruction + "\n\n")
	if task.Prompt != "" {
		sb.WriteString("PROMPT:\n" + task.Prompt + "\n\n")
	}
	if task.MinWords > 0 || task.MaxWords > 0 {
		sb.WriteString(fmt.Sprintf("WORD LIMIT: %d-%d words\n\n", task.MinWords, task.MaxWords))
	}
	sb.WriteString("CANDIDATE ANSWER:\n" + task.Answer + "\n")
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
