package model

import "time"

// UserReport aggregates everything known about a user for export
type UserReport struct {
	User                 Profile        `json:"usuario"`
	Stats                UserStats      `json:"estatisticas"`
	Score                Score          `json:"pontuacao_geral"`
	InitialQuestionnaire bool           `json:"questionario_inicial"`
	History              []HistoryItem  `json:"questionarios"`
	Diary                []*DiaryEntry  `json:"diario"`
	Diagnoses            []*Diagnosis   `json:"diagnosticos"`
	Insights             *InsightReport `json:"insights,omitempty"`
	GeneratedAt          time.Time      `json:"gerado_em"`
}
