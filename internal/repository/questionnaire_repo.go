package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mindtracking/internal/model"
)

// ScoreTotals is the sum of answer points and the number of answers
type ScoreTotals struct {
	Raw     int `bson:"raw"`
	Answers int `bson:"answers"`
}

// QuestionnaireRepo handles MongoDB operations for questionnaire instances.
// An instance embeds its answers, so Create is a single atomic write.
type QuestionnaireRepo interface {
	// Create returns ErrDuplicate when the user already has an instance for
	// that day, or already has an initial instance.
	Create(ctx context.Context, q *model.Questionnaire) error
	ExistsForDay(ctx context.Context, userID, day string) (bool, error)
	HasInitial(ctx context.Context, userID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Questionnaire, error)
	ListSince(ctx context.Context, userID, fromDay string) ([]*model.Questionnaire, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Totals(ctx context.Context, userID string) (*ScoreTotals, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type questionnaireRepo struct {
	collection *mongo.Collection
}

// NewQuestionnaireRepo creates a new questionnaire repository
func NewQuestionnaireRepo(db *mongo.Database) QuestionnaireRepo {
	return &questionnaireRepo{
		collection: db.Collection(questionnairesCollection),
	}
}

func (r *questionnaireRepo) Create(ctx context.Context, q *model.Questionnaire) error {
	if q.ID == "" {
		q.ID = primitive.NewObjectID().Hex()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, q)
	return mapWriteErr(err)
}

func (r *questionnaireRepo) ExistsForDay(ctx context.Context, userID, day string) (bool, error) {
	return r.exists(ctx, bson.M{"userId": userID, "day": day})
}

func (r *questionnaireRepo) HasInitial(ctx context.Context, userID string) (bool, error) {
	return r.exists(ctx, bson.M{"userId": userID, "kind": model.KindInitial})
}

func (r *questionnaireRepo) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *questionnaireRepo) ListByUser(ctx context.Context, userID string) ([]*model.Questionnaire, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r *questionnaireRepo) ListSince(ctx context.Context, userID, fromDay string) ([]*model.Questionnaire, error) {
	return r.list(ctx, bson.M{"userId": userID, "day": bson.M{"$gte": fromDay}})
}

func (r *questionnaireRepo) list(ctx context.Context, filter bson.M) ([]*model.Questionnaire, error) {
	opts := options.Find().SetSort(bson.D{{Key: "day", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*model.Questionnaire{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionnaireRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID})
}

func (r *questionnaireRepo) Totals(ctx context.Context, userID string) (*ScoreTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$unwind", Value: "$answers"}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"raw":     bson.M{"$sum": "$answers.points"},
			"answers": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []ScoreTotals
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &ScoreTotals{}, nil
	}
	return &rows[0], nil
}

func (r *questionnaireRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
