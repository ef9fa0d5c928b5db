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

// DiagnosisRepo is the append-only diagnosis log
type DiagnosisRepo interface {
	Create(ctx context.Context, d *model.Diagnosis) error
	Latest(ctx context.Context, userID string) (*model.Diagnosis, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Diagnosis, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type diagnosisRepo struct {
	collection *mongo.Collection
}

// NewDiagnosisRepo creates a new diagnosis repository
func NewDiagnosisRepo(db *mongo.Database) DiagnosisRepo {
	return &diagnosisRepo{
		collection: db.Collection(diagnosesCollection),
	}
}

func (r *diagnosisRepo) Create(ctx context.Context, d *model.Diagnosis) error {
	if d.ID == "" {
		d.ID = primitive.NewObjectID().Hex()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, d)
	return err
}

func (r *diagnosisRepo) Latest(ctx context.Context, userID string) (*model.Diagnosis, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var d model.Diagnosis
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}, opts).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *diagnosisRepo) ListByUser(ctx context.Context, userID string) ([]*model.Diagnosis, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*model.Diagnosis{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *diagnosisRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
