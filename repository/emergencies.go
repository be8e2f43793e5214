package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"safemove/model"
	"safemove/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EmergenciesRepo struct {
	MongoCollection *mongo.Collection
}

func GetEmergenciesRepo(client *mongo.Client) *EmergenciesRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := utils.GetEnvAsString("EMERGENCIES_COLLECTION", "emergencies")
	return &EmergenciesRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

func (r *EmergenciesRepo) CreateEmergency(ctx context.Context, emergency *model.Emergency) error {
	timer := utils.TrackDBOperation("insert", "emergencies")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if emergency == nil || emergency.Cause == "" {
		utils.TrackError("database", "invalid_emergency_data")
		return fmt.Errorf("emergency cause is required")
	}

	if _, err := r.MongoCollection.InsertOne(ctx, emergency); err != nil {
		utils.TrackError("database", "emergency_creation_failed")
		return fmt.Errorf("failed to record emergency: %w", err)
	}
	return nil
}

// ListRecent returns the newest emergencies up to limit
func (r *EmergenciesRepo) ListRecent(ctx context.Context, limit int64) ([]*model.Emergency, error) {
	timer := utils.TrackDBOperation("find", "emergencies")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.MongoCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.TrackError("database", "emergency_list_failed")
		return nil, fmt.Errorf("failed to list emergencies: %w", err)
	}
	defer cursor.Close(ctx)

	var emergencies []*model.Emergency
	if err := cursor.All(ctx, &emergencies); err != nil {
		utils.TrackError("database", "emergency_decode_failed")
		return nil, fmt.Errorf("failed to decode emergencies: %w", err)
	}
	return emergencies, nil
}

func (r *EmergenciesRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	timer := utils.TrackDBOperation("count", "emergencies")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since}})
	if err != nil {
		utils.TrackError("database", "emergency_count_failed")
		return 0, fmt.Errorf("failed to count emergencies: %w", err)
	}
	return count, nil
}
