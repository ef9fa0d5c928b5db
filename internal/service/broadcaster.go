package service

// Broadcaster pushes events to a user's open WebSocket connections (avoids import cycle)
type Broadcaster interface {
	SendToUser(userID string, msgType string, payload interface{})
}

// Event types pushed to clients
const (
	EventDiaryAnalyzed  = "diary_analyzed"
	EventDiagnosisReady = "diagnosis_ready"
	EventScoreUpdated   = "score_updated"
)
