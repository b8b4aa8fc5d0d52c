package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/handler"
	"github.com/noah-isme/campus-admin-api/internal/knowledge"
	"github.com/noah-isme/campus-admin-api/pkg/ai"
)

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (e *countingEmbedder) Model() string { return "test-embed" }

type cannedModel struct {
	reply string
}

func (m cannedModel) Complete(context.Context, ai.CompletionRequest) (ai.CompletionResponse, error) {
	return ai.CompletionResponse{Message: ai.Message{Role: ai.RoleAssistant, Content: m.reply}}, nil
}

func knowledgeApp(t *testing.T, embedder ai.Embedder, model ai.ChatModel) *fiber.App {
	t.Helper()
	logger := zerolog.New(io.Discard)

	faq, err := knowledge.NewFAQ(knowledge.DefaultFAQEntries())
	require.NoError(t, err)
	index, err := knowledge.NewIndex("test-embed", []knowledge.Chunk{
		{ID: "guide-0", Text: "Admissions open in June.", Embedding: []float32{1, 0}},
		{ID: "guide-1", Text: "Hostel fees are due monthly.", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)

	retriever := knowledge.NewSemanticRetriever(index, embedder, 1, logger)
	assistant := knowledge.NewAssistant(retriever, model, knowledge.NewLocalMemory(knowledge.DefaultMemoryWindow), logger)

	app := fiber.New()
	handler.NewKnowledgeHandler(faq, retriever, assistant, testValidator(), logger).Register(app.Group("/api/v1/knowledge"))
	return app
}

func TestKnowledgeHandler_FAQ(t *testing.T) {
	app := knowledgeApp(t, &countingEmbedder{}, cannedModel{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/knowledge/faq", map[string]string{"question": "  How to ADD student?"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var entry dto.FAQResponse
	require.NoError(t, json.Unmarshal(body.Data, &entry))
	require.Equal(t, "how to add student", entry.Question)
	require.Contains(t, entry.Answer, "add_student")

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/knowledge/faq", map[string]string{"question": "where is the cafeteria"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/knowledge/faq", map[string]string{"question": ""})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestKnowledgeHandler_Search(t *testing.T) {
	embedder := &countingEmbedder{}
	app := knowledgeApp(t, embedder, cannedModel{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/knowledge/search", map[string]string{"question": "when do admissions open"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var answer dto.SearchResponse
	require.NoError(t, json.Unmarshal(body.Data, &answer))
	require.Equal(t, knowledge.AnswerPrefix+"Admissions open in June.", answer.Answer)
	require.Equal(t, []string{"guide-0"}, answer.Sources)
	require.False(t, answer.Degraded)
	require.Equal(t, 1, embedder.calls)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/knowledge/search", map[string]string{"question": "   "})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 1, embedder.calls)
}

func TestKnowledgeHandler_SearchDegradesWithoutEmbeddings(t *testing.T) {
	app := knowledgeApp(t, ai.Unavailable{}, cannedModel{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/knowledge/search", map[string]string{"question": "fees"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var answer dto.SearchResponse
	require.NoError(t, json.Unmarshal(body.Data, &answer))
	require.True(t, answer.Degraded)
	require.Equal(t, knowledge.AnswerSearchFailure, answer.Answer)
	require.Empty(t, answer.Sources)
}

func TestKnowledgeHandler_Assistant(t *testing.T) {
	app := knowledgeApp(t, &countingEmbedder{}, cannedModel{reply: "Admissions open in June."})

	resp, raw := postRaw(t, app, "/api/v1/knowledge/assistant", map[string]string{"question": "hello"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"data":{"session_id":"default"},"error":false,"message":"Hello! How can I assist you today?"}`, raw)

	_, raw = postRaw(t, app, "/api/v1/knowledge/assistant", map[string]string{"session_id": "s1", "question": "when do admissions open?"})
	require.JSONEq(t, `{"data":{"session_id":"s1"},"error":false,"message":"Admissions open in June."}`, raw)

	resp, raw = postRaw(t, app, "/api/v1/knowledge/assistant", map[string]string{"question": ""})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"data":{"session_id":"default"},"error":true,"message":"User question cannot be empty."}`, raw)
}

func TestKnowledgeHandler_AssistantReportsUpstreamFailure(t *testing.T) {
	app := knowledgeApp(t, &countingEmbedder{}, ai.Unavailable{})

	resp, raw := postRaw(t, app, "/api/v1/knowledge/assistant", map[string]string{"question": "fees?"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.AssistantResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	require.True(t, out.Error)
	require.Contains(t, out.Message, "Error querying documents")
}

func postRaw(t *testing.T, app *fiber.App, path string, body interface{}) (*http.Response, string) {
	t.Helper()
	resp, raw := send(t, app, http.MethodPost, path, body)
	return resp, string(raw)
}
