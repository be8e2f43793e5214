package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupIndexes creates the indexes the repositories query against
func SetupIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	studentIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "name", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
	if _, err := db.Collection("students").Indexes().CreateMany(ctx, studentIndexes); err != nil {
		return fmt.Errorf("failed to create student indexes: %w", err)
	}

	extensionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	if _, err := db.Collection("extension_requests").Indexes().CreateMany(ctx, extensionIndexes); err != nil {
		return fmt.Errorf("failed to create extension request indexes: %w", err)
	}

	emergencyIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	if _, err := db.Collection("emergencies").Indexes().CreateMany(ctx, emergencyIndexes); err != nil {
		return fmt.Errorf("failed to create emergency indexes: %w", err)
	}

	log.Println("MongoDB indexes created")
	return nil
}
