package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/pkg/ai"
)

// DefaultSession is used when the caller does not name a conversation.
const DefaultSession = "default"

const assistantGreeting = "Hello! How can I assist you today?"

var greetings = map[string]struct{}{"hi": {}, "hello": {}, "hey": {}}

// AssistantResult mirrors the {data, error, message} shape of the assistant endpoint.
type AssistantResult struct {
	Data    map[string]string
	Error   bool
	Message string
}

// Assistant is the experimental retrieval assistant with per-session memory.
// It is independent from agent dispatch.
type Assistant struct {
	retriever *SemanticRetriever
	model     ai.ChatModel
	memory    Memory
	logger    zerolog.Logger
}

// NewAssistant constructs the assistant. A nil memory falls back to process memory.
func NewAssistant(retriever *SemanticRetriever, model ai.ChatModel, memory Memory, logger zerolog.Logger) *Assistant {
	if memory == nil {
		memory = NewLocalMemory(DefaultMemoryWindow)
	}
	return &Assistant{
		retriever: retriever,
		model:     model,
		memory:    memory,
		logger:    logger.With().Str("component", "knowledge_assistant").Logger(),
	}
}

// Ask answers a question using retrieved context and the session's recent exchanges.
func (a *Assistant) Ask(ctx context.Context, session, question string) AssistantResult {
	session = strings.TrimSpace(session)
	if session == "" {
		session = DefaultSession
	}
	data := map[string]string{"session_id": session}

	question = strings.TrimSpace(question)
	if question == "" {
		return AssistantResult{Data: data, Error: true, Message: "User question cannot be empty."}
	}

	if _, ok := greetings[Normalise(question)]; ok {
		return AssistantResult{Data: data, Message: assistantGreeting}
	}

	history, err := a.memory.Recent(ctx, session)
	if err != nil {
		a.logger.Warn().Err(err).Str("session", session).Msg("assistant memory unavailable")
		history = nil
	}

	var contextChunks []string
	if a.retriever != nil {
		contextChunks = a.retriever.Context(ctx, question)
	}

	resp, err := a.model.Complete(ctx, ai.CompletionRequest{Messages: assistantMessages(contextChunks, history, question)})
	if err != nil {
		return AssistantResult{Data: data, Error: true, Message: fmt.Sprintf("Error querying documents: %v", err)}
	}

	answer := strings.TrimSpace(resp.Message.Content)
	if err := a.memory.Append(ctx, session, Exchange{Question: question, Answer: answer}); err != nil {
		a.logger.Warn().Err(err).Str("session", session).Msg("failed to store assistant exchange")
	}

	return AssistantResult{Data: data, Message: answer}
}

func assistantMessages(contextChunks []string, history []Exchange, question string) []ai.Message {
	var system strings.Builder
	system.WriteString("You are a helpful assistant. Answer the user's question based on the following context.\n\nContext:\n")
	if len(contextChunks) == 0 {
		system.WriteString("(no context available)")
	} else {
		system.WriteString(strings.Join(contextChunks, "\n\n"))
	}
	system.WriteString("\n\nAnswer concisely and clearly.")

	messages := make([]ai.Message, 0, 2+2*len(history))
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: system.String()})
	for _, exchange := range history {
		messages = append(messages,
			ai.Message{Role: ai.RoleUser, Content: exchange.Question},
			ai.Message{Role: ai.RoleAssistant, Content: exchange.Answer},
		)
	}
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: question})
	return messages
}
