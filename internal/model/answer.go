package model

import "time"

// QuestionnaireKind distinguishes the one-time initial questionnaire from daily ones
type QuestionnaireKind string

const (
	KindInitial QuestionnaireKind = "Inicial"
	KindDaily   QuestionnaireKind = "Diario"
)

// MaxDailyAnswers caps a daily submission
const MaxDailyAnswers = 10

// Answer is one chosen alternative inside a questionnaire instance.
// Points is copied from the catalog at submission time.
type Answer struct {
	QuestionID    int `json:"pergunta_id" bson:"questionId"`
	AlternativeID int `json:"alternativa_id" bson:"alternativeId"`
	Points        int `json:"pontuacao" bson:"points"`
}

// Questionnaire is a submitted instance together with its answers.
// It is written once and never updated.
type Questionnaire struct {
	ID        string            `json:"id" bson:"_id"`
	UserID    string            `json:"usuario_id" bson:"userId"`
	Kind      QuestionnaireKind `json:"tipo" bson:"kind"`
	Day       string            `json:"data" bson:"day"` // YYYY-MM-DD in the app timezone
	Answers   []Answer          `json:"respostas" bson:"answers"`
	CreatedAt time.Time         `json:"criado_em" bson:"createdAt"`
}

// Points returns the point value of every answer, in order
func (q *Questionnaire) Points() []int {
	out := make([]int, len(q.Answers))
	for i, a := range q.Answers {
		out[i] = a.Points
	}
	return out
}

// AnswerInput is one (question, alternative) pair sent by the client
type AnswerInput struct {
	QuestionID    int `json:"pergunta_id" validate:"required,gt=0"`
	AlternativeID int `json:"alternativa_id" validate:"required,gt=0"`
}

// SubmitRequest is the body of both questionnaire submission endpoints
type SubmitRequest struct {
	Answers []AnswerInput `json:"respostas" validate:"required,min=1,dive"`
}

// Level is the qualitative band of a normalized score
type Level string

const (
	LevelPoor    Level = "Ruim"
	LevelNeutral Level = "Neutro"
	LevelGood    Level = "Bom"
)

// Score is derived from answers on read and never stored
type Score struct {
	Raw           int     `json:"pontuacao"`
	QuestionCount int     `json:"total_perguntas"`
	MaxPoints     int     `json:"pontuacao_maxima"`
	Normalized    float64 `json:"nota"`
	Level         Level   `json:"nivel,omitempty"`
	Answered      bool    `json:"respondido"`
}

// HistoryItem is one row of a user's questionnaire history
type HistoryItem struct {
	QuestionnaireID string            `json:"questionario_id"`
	Day             string            `json:"data"`
	Kind            QuestionnaireKind `json:"tipo"`
	Raw             int               `json:"pontuacao"`
	Normalized      float64           `json:"nota_convertida"`
	Level           Level             `json:"nivel,omitempty"`
	SubmittedAt     time.Time         `json:"enviado_em"`
}

// DailyStatus reports whether today's questionnaire was already answered
type DailyStatus struct {
	Answered bool   `json:"ja_respondido"`
	Day      string `json:"data"`
}
