package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mindtracking/internal/model"
)

// QuestionRepo is read access to the question catalog, plus Upsert for seeding
type QuestionRepo interface {
	GetInitial(ctx context.Context) ([]*model.Question, error)
	GetAll(ctx context.Context) ([]*model.Question, error)
	GetDailyPool(ctx context.Context) ([]*model.Question, error)
	GetByIDs(ctx context.Context, ids []int) ([]*model.Question, error)
	Upsert(ctx context.Context, question *model.Question) error
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection(questionsCollection),
	}
}

func (r *questionRepo) GetInitial(ctx context.Context) ([]*model.Question, error) {
	return r.find(ctx, bson.M{"_id": bson.M{"$gte": 1, "$lte": model.InitialQuestionCount}})
}

func (r *questionRepo) GetAll(ctx context.Context) ([]*model.Question, error) {
	return r.find(ctx, bson.M{})
}

func (r *questionRepo) GetDailyPool(ctx context.Context) ([]*model.Question, error) {
	return r.find(ctx, bson.M{"_id": bson.M{"$gte": model.DailyPoolMinID}})
}

func (r *questionRepo) GetByIDs(ctx context.Context, ids []int) ([]*model.Question, error) {
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *questionRepo) find(ctx context.Context, filter bson.M) ([]*model.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	questions := []*model.Question{}
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) Upsert(ctx context.Context, question *model.Question) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": question.ID}, question, opts)
	return err
}
