package dto

// QuestionRequest carries a free-text knowledge question.
type QuestionRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// FAQResponse is a matched FAQ entry.
type FAQResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SearchResponse is a semantic retrieval answer.
type SearchResponse struct {
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
	Degraded bool     `json:"degraded"`
}

// AssistantRequest is a question for the memory-backed assistant.
type AssistantRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
	Question  string `json:"question" validate:"required,max=2000"`
}

// AssistantResponse mirrors the assistant's {data, error, message} result.
type AssistantResponse struct {
	Data    map[string]string `json:"data"`
	Error   bool              `json:"error"`
	Message string            `json:"message"`
}
