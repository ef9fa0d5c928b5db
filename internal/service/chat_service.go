package service

import (
	"context"

	"mindtracking/internal/cache"
	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
)

const (
	// diagnosisThreshold is the number of user messages that triggers a diagnosis
	diagnosisThreshold = 10
	// maxTurns bounds the context sent to the model
	maxTurns = 30
)

// ChatService runs the companion conversation. State is per user and kept in
// Redis, never in process memory.
type ChatService struct {
	sessions    cache.SessionCache
	diagnoses   repository.DiagnosisRepo
	assistant   Assistant
	broadcaster Broadcaster
	log         *logger.Logger
}

// NewChatService creates a new chat service
func NewChatService(sessions cache.SessionCache, diagnoses repository.DiagnosisRepo, assistant Assistant, log *logger.Logger) *ChatService {
	return &ChatService{
		sessions:  sessions,
		diagnoses: diagnoses,
		assistant: assistant,
		log:       log,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *ChatService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Send appends a user message, gets the reply and, once enough messages were
// collected, stores a diagnosis.
func (s *ChatService) Send(ctx context.Context, userID string, req *model.ChatRequest) (*model.ChatReply, error) {
	if req == nil {
		return nil, ValidationError("Por favor, envie uma mensagem para continuar a conversa.")
	}
	if err := Validate(req); err != nil {
		return nil, ValidationError("Por favor, envie uma mensagem para continuar a conversa.")
	}

	// Snapshot for the model context only; the write below re-reads the session
	var turns []model.ChatMessage
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		s.log.Warn("chat session read failed, starting fresh", "user", userID, "error", err)
	}
	if session != nil {
		turns = append(turns, session.Turns...)
	}

	userTurn := model.ChatMessage{Role: model.RoleUser, Content: req.Message}
	reply, err := s.assistant.Reply(ctx, append(turns, userTurn))
	if err != nil {
		return nil, UnavailableError("Desculpe, ocorreu um erro ao processar sua mensagem. Por favor, tente novamente mais tarde.", err)
	}
	out := &model.ChatReply{Response: reply}

	var batch []string
	_, err = s.sessions.Update(ctx, userID, func(session *model.ChatSession) error {
		batch = nil
		session.Turns = append(session.Turns, userTurn, model.ChatMessage{Role: model.RoleAssistant, Content: reply})
		if len(session.Turns) > maxTurns {
			session.Turns = session.Turns[len(session.Turns)-maxTurns:]
		}
		session.Pending = append(session.Pending, req.Message)
		if len(session.Pending) >= diagnosisThreshold {
			// Claim the batch so a concurrent message cannot diagnose it twice
			batch = session.Pending
			session.Pending = nil
		}
		return nil
	})
	if err != nil {
		s.log.Warn("chat session write failed", "user", userID, "error", err)
		return out, nil
	}

	if batch != nil {
		d, err := s.diagnose(ctx, userID, batch)
		if err != nil {
			s.log.Warn("diagnosis failed, will retry on next message", "user", userID, "error", err)
			s.restorePending(ctx, userID, batch)
			return out, nil
		}
		out.DiagnosisNew = true
		if s.broadcaster != nil {
			s.broadcaster.SendToUser(userID, EventDiagnosisReady, d)
		}
	}
	return out, nil
}

// restorePending puts a claimed batch back in front of newer messages
func (s *ChatService) restorePending(ctx context.Context, userID string, batch []string) {
	_, err := s.sessions.Update(ctx, userID, func(session *model.ChatSession) error {
		session.Pending = append(append([]string{}, batch...), session.Pending...)
		return nil
	})
	if err != nil {
		s.log.Warn("chat pending restore failed", "user", userID, "error", err)
	}
}

func (s *ChatService) diagnose(ctx context.Context, userID string, messages []string) (*model.Diagnosis, error) {
	text, err := s.assistant.Diagnose(ctx, messages)
	if err != nil {
		return nil, err
	}
	d := &model.Diagnosis{UserID: userID, Text: text}
	if err := s.diagnoses.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Tip builds a practical suggestion from the latest diagnosis
func (s *ChatService) Tip(ctx context.Context, userID string) (string, error) {
	latest, err := s.diagnoses.Latest(ctx, userID)
	if err != nil {
		return "", StorageError("latest diagnosis", err)
	}
	if latest == nil {
		return "", NotFoundError("Não encontramos nenhum diagnóstico recente para gerar uma dica personalizada. Continue conversando com a assistente para receber um diagnóstico.")
	}
	tip, err := s.assistant.Tip(ctx, latest.Text)
	if err != nil {
		return "", UnavailableError("Não foi possível gerar uma dica personalizada neste momento. Por favor, tente novamente mais tarde.", err)
	}
	return tip, nil
}

// Reset drops the conversation state
func (s *ChatService) Reset(ctx context.Context, userID string) error {
	return s.sessions.Delete(ctx, userID)
}
