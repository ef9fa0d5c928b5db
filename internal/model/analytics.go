package model

import "time"

// Lookback window bounds for trend/correlation analysis, in days
const (
	DefaultInsightWindow = 30
	MaxInsightWindow     = 365
)

// InsightStatus tells whether enough paired data existed
type InsightStatus string

const (
	InsightOK           InsightStatus = "ok"
	InsightInsufficient InsightStatus = "dados_insuficientes"
)

// TrendDirection is the sign of a linear-fit slope
type TrendDirection string

const (
	TrendUp     TrendDirection = "subindo"
	TrendDown   TrendDirection = "descendo"
	TrendStable TrendDirection = "estavel"
)

// ScorePoint is one questionnaire observation on the time axis
type ScorePoint struct {
	Day         string    `json:"data"`
	SubmittedAt time.Time `json:"enviado_em"`
	Normalized  float64   `json:"nota"`
}

// IntensityPoint is one analyzed diary observation on the time axis
type IntensityPoint struct {
	Day       string    `json:"data"`
	At        time.Time `json:"data_hora"`
	Intensity Intensity `json:"intensidade"`
}

// PairedPoint joins a questionnaire score with the diary entry of the same day
type PairedPoint struct {
	Day       string  `json:"data"`
	Score     float64 `json:"nota"`
	Intensity float64 `json:"intensidade"`
}

// Trend summarizes the least-squares slope of a series over day offsets
type Trend struct {
	Slope     float64        `json:"inclinacao"`
	Direction TrendDirection `json:"direcao"`
	Points    int            `json:"pontos"`
}

// Correlation is a Pearson coefficient over same-day pairs
type Correlation struct {
	Status      InsightStatus `json:"status"`
	Coefficient float64       `json:"coeficiente"`
	Pairs       int           `json:"pares"`
}

// InsightReport is the trend/correlation result for one user and window
type InsightReport struct {
	UserID         string        `json:"usuario_id"`
	WindowDays     int           `json:"janela_dias"`
	From           string        `json:"de"`
	To             string        `json:"ate"`
	Correlation    Correlation   `json:"correlacao"`
	ScoreTrend     Trend         `json:"tendencia_nota"`
	IntensityTrend Trend         `json:"tendencia_intensidade"`
	Pairs          []PairedPoint `json:"pares"`
	GeneratedAt    time.Time     `json:"gerado_em"`
}
