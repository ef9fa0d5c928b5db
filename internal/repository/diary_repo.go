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

// DiaryRepo handles MongoDB operations for diary entries
type DiaryRepo interface {
	// Create inserts a shell entry. ErrDuplicate means the day already has one.
	Create(ctx context.Context, entry *model.DiaryEntry) error
	GetByID(ctx context.Context, id string) (*model.DiaryEntry, error)
	ExistsForDay(ctx context.Context, userID, day string) (bool, error)
	// ApplyAnalysis fills the derived fields once. It reports false when the
	// entry was already enriched.
	ApplyAnalysis(ctx context.Context, id string, analysis *model.DiaryAnalysis, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*model.DiaryEntry, error)
	ListAnalyzedSince(ctx context.Context, userID, fromDay string) ([]*model.DiaryEntry, error)
	ListPending(ctx context.Context, createdBefore time.Time, limit int64) ([]*model.DiaryEntry, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type diaryRepo struct {
	collection *mongo.Collection
}

// NewDiaryRepo creates a new diary repository
func NewDiaryRepo(db *mongo.Database) DiaryRepo {
	return &diaryRepo{
		collection: db.Collection(diaryCollection),
	}
}

func (r *diaryRepo) Create(ctx context.Context, entry *model.DiaryEntry) error {
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	return mapWriteErr(err)
}

func (r *diaryRepo) GetByID(ctx context.Context, id string) (*model.DiaryEntry, error) {
	var entry model.DiaryEntry
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *diaryRepo) ExistsForDay(ctx context.Context, userID, day string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"userId": userID, "day": day}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *diaryRepo) ApplyAnalysis(ctx context.Context, id string, analysis *model.DiaryAnalysis, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "analyzedAt": nil},
		bson.M{"$set": bson.M{
			"emotion":    analysis.Emotion,
			"intensity":  analysis.Intensity,
			"comment":    analysis.Comment,
			"analyzedAt": at,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *diaryRepo) ListByUser(ctx context.Context, userID string) ([]*model.DiaryEntry, error) {
	return r.list(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *diaryRepo) ListAnalyzedSince(ctx context.Context, userID, fromDay string) ([]*model.DiaryEntry, error) {
	filter := bson.M{
		"userId":     userID,
		"day":        bson.M{"$gte": fromDay},
		"analyzedAt": bson.M{"$ne": nil},
	}
	return r.list(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *diaryRepo) ListPending(ctx context.Context, createdBefore time.Time, limit int64) ([]*model.DiaryEntry, error) {
	filter := bson.M{
		"analyzedAt": nil,
		"createdAt":  bson.M{"$lt": createdBefore},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(limit)
	return r.list(ctx, filter, opts)
}

func (r *diaryRepo) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.DiaryEntry, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*model.DiaryEntry{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *diaryRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
