package model

// Catalog partition: ids 1..InitialQuestionCount form the initial questionnaire,
// everything above belongs to the daily pool.
const (
	InitialQuestionCount = 10
	DailyPoolMinID       = InitialQuestionCount + 1
	MaxAlternativePoints = 4
)

// Alternative is one selectable option of a question
type Alternative struct {
	ID     int    `json:"id" bson:"id"`
	Text   string `json:"texto" bson:"text"`
	Points int    `json:"pontuacao" bson:"points"` // 0..MaxAlternativePoints
}

// Question is immutable reference data
type Question struct {
	ID           int           `json:"id" bson:"_id"`
	Text         string        `json:"texto" bson:"text"`
	Alternatives []Alternative `json:"alternativas" bson:"alternatives"`
}

// IsInitial reports whether the question belongs to the initial subset
func (q *Question) IsInitial() bool {
	return q.ID >= 1 && q.ID <= InitialQuestionCount
}

// Alternative returns the alternative with the given id, or nil when it
// does not belong to this question.
func (q *Question) Alternative(id int) *Alternative {
	for i := range q.Alternatives {
		if q.Alternatives[i].ID == id {
			return &q.Alternatives[i]
		}
	}
	return nil
}
