package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	usersCollection          = "users"
	questionsCollection      = "questions"
	questionnairesCollection = "questionnaires"
	diaryCollection          = "diary_entries"
	diagnosesCollection      = "diagnoses"
)

// ErrDuplicate is returned when a write violates a unique index.
// The one-per-day and one-initial-ever rules rely on it.
var ErrDuplicate = errors.New("duplicate key")

// EnsureIndexes creates the indexes the storage invariants depend on.
// Safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		},
		questionnairesCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "day", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_user_day"),
			},
			{
				Keys: bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("uniq_user_initial").
					SetPartialFilterExpression(bson.M{"kind": "Inicial"}),
			},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		diaryCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "day", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_user_day"),
			},
			{Keys: bson.D{{Key: "analyzedAt", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		diagnosesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// mapWriteErr turns duplicate-key write errors into ErrDuplicate
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
