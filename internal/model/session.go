package model

import "time"

// ChatRole identifies the author of a chat message
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a companion conversation
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatSession is the per-user conversation state. It lives in Redis with a TTL.
type ChatSession struct {
	UserID string        `json:"userId"`
	Turns  []ChatMessage `json:"turns"`
	// Pending collects user messages since the last diagnosis
	Pending   []string  `json:"pending"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Diagnosis is an append-only record generated from a chat window
type Diagnosis struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"usuario_id" bson:"userId"`
	Text      string    `json:"texto" bson:"text"`
	CreatedAt time.Time `json:"criado_em" bson:"createdAt"`
}

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatReply is returned for each chat message
type ChatReply struct {
	Response     string `json:"response"`
	DiagnosisNew bool   `json:"diagnostico_gerado"`
}
