package model

import "time"

// Intensity is the tier assigned to a diary entry by analysis
type Intensity string

const (
	IntensityLow      Intensity = "baixa"
	IntensityModerate Intensity = "moderada"
	IntensityHigh     Intensity = "alta"
)

// Weight maps the tier onto a numeric axis. Unknown tiers return 0, false.
func (i Intensity) Weight() (float64, bool) {
	switch i {
	case IntensityLow:
		return 1, true
	case IntensityModerate:
		return 2, true
	case IntensityHigh:
		return 3, true
	default:
		return 0, false
	}
}

// DiaryEntry is created as a shell and enriched exactly once.
// Emotion, Intensity and Comment stay nil until AnalyzedAt is set.
type DiaryEntry struct {
	ID         string     `json:"id" bson:"_id"`
	UserID     string     `json:"usuario_id" bson:"userId"`
	Day        string     `json:"-" bson:"day"`
	CreatedAt  time.Time  `json:"data_hora" bson:"createdAt"`
	Text       string     `json:"texto" bson:"text"`
	Emotion    *string    `json:"emocao_predominante" bson:"emotion"`
	Intensity  *Intensity `json:"intensidade_emocional" bson:"intensity"`
	Comment    *string    `json:"comentario_athena" bson:"comment"`
	AnalyzedAt *time.Time `json:"analisado_em,omitempty" bson:"analyzedAt"`
}

// DiaryAnalysis holds the derived fields filled by enrichment
type DiaryAnalysis struct {
	Emotion   string    `json:"emocao_predominante"`
	Intensity Intensity `json:"intensidade_emocional"`
	Comment   string    `json:"comentario_athena"`
}

// CreateDiaryRequest is the body of POST /diary
type CreateDiaryRequest struct {
	Text string `json:"texto" validate:"required,max=5000"`
}
