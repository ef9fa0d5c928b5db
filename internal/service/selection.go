package service

import "mindtracking/internal/model"

// Daily session bounds
const (
	DailySessionSize = 10
	DailySessionMin  = 5
)

// SelectDailyQuestions picks up to DailySessionSize questions from pool
// without replacement. shuffle has the signature of rand.Shuffle.
// The pool slice is not modified.
func SelectDailyQuestions(pool []*model.Question, shuffle func(n int, swap func(i, j int))) ([]*model.Question, error) {
	if len(pool) < DailySessionMin {
		return nil, ErrInsufficientQuestions
	}

	picked := make([]*model.Question, len(pool))
	copy(picked, pool)
	shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })

	if len(picked) > DailySessionSize {
		picked = picked[:DailySessionSize]
	}
	return picked, nil
}
