package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentprep/fluentprep-backend/internal/model"
)

// stubCompleter replays canned responses or errors.
type stubCompleter struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (s *stubCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func newTestClient(stub *stubCompleter) *Client {
	return &Client{api: stub, model: "test-model", log: zerolog.Nop()}
}

func sampleTask() model.WritingTask {
	return model.WritingTask{
		Instruction: "Write an essay about remote work.",
		Answer:      "Remote work has reshaped how companies organise themselves.",
		MinWords:    150,
		MaxWords:    250,
	}
}

func TestEvaluateTaskParsesWellFormedResponse(t *testing.T) {
	stub := &stubCompleter{content: `{
		"band": 6.5,
		"criteria": [
			{"name": "Task Achievement", "score": 6, "comment": "Covers the task."},
			{"name": "Coherence and Cohesion", "score": 7, "comment": "Well organised."}
		],
		"strengths": ["clear structure"],
		"weaknesses": ["limited range"],
		"corrections": ["organize -> organise"],
		"summary": "A solid essay.",
		"corrected_text": "Remote work has reshaped..."
	}`}
	c := newTestClient(stub)

	res, err := c.EvaluateTask(context.Background(), sampleTask())
	require.NoError(t, err)
	assert.Equal(t, 6.5, res.Band)
	require.Len(t, res.Criteria, 2)
	assert.Equal(t, "Task Achievement", res.Criteria[0].Name)
	assert.Equal(t, []string{"clear structure"}, res.Strengths)
	assert.Equal(t, "A solid essay.", res.Summary)

	// JSON mode and both prompt roles must be on the wire.
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, stub.lastReq.ResponseFormat.Type)
	require.Len(t, stub.lastReq.Messages, 2)
	assert.Contains(t, stub.lastReq.Messages[1].Content, "remote work")
}

func TestEvaluateTaskMalformedResponseFallsBackToNeutral(t *testing.T) {
	for _, raw := range []string{
		"I think this essay deserves a 7.",
		"{\"band\": 0}",
		"",
		"{\"unexpected\": true}",
	} {
		stub := &stubCompleter{content: raw}
		c := newTestClient(stub)

		res, err := c.EvaluateTask(context.Background(), sampleTask())
		require.NoError(t, err, "raw %q", raw)
		assert.Equal(t, NeutralBand, res.Band, "raw %q", raw)
		require.Len(t, res.Criteria, 4)
		for i, cr := range res.Criteria {
			assert.Equal(t, CriterionNames[i], cr.Name)
			assert.Equal(t, 5.0, cr.Score)
			assert.Empty(t, cr.Comment)
		}
		assert.Empty(t, res.Strengths)
		assert.Empty(t, res.Corrections)
	}
}

func TestEvaluateTaskTransportErrorPropagates(t *testing.T) {
	stub := &stubCompleter{err: errors.New("connection refused")}
	c := newTestClient(stub)

	_, err := c.EvaluateTask(context.Background(), sampleTask())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle call")
}

func TestEvaluateTaskNoChoicesIsAnError(t *testing.T) {
	stub := &stubCompleter{content: ""}
	c := newTestClient(stub)
	// Override: a response with zero choices, not an empty message.
	c.api = noChoices{}

	_, err := c.EvaluateTask(context.Background(), sampleTask())
	assert.Error(t, err)
}

type noChoices struct{}

func (noChoices) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}
