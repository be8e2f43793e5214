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

type ExtensionsRepo struct {
	MongoCollection *mongo.Collection
}

func GetExtensionsRepo(client *mongo.Client) *ExtensionsRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := utils.GetEnvAsString("EXTENSIONS_COLLECTION", "extension_requests")
	return &ExtensionsRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

func (r *ExtensionsRepo) CreateRequest(ctx context.Context, request *model.ExtensionRequest) error {
	timer := utils.TrackDBOperation("insert", "extension_requests")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if request == nil {
		utils.TrackError("database", "nil_extension_request")
		return fmt.Errorf("extension request cannot be nil")
	}
	if request.RequestID == "" || request.StudentID == "" {
		utils.TrackError("database", "invalid_extension_data")
		return fmt.Errorf("invalid extension request: missing required fields")
	}

	if _, err := r.MongoCollection.InsertOne(ctx, request); err != nil {
		utils.TrackError("database", "extension_creation_failed")
		return fmt.Errorf("failed to create extension request: %w", err)
	}
	return nil
}

func (r *ExtensionsRepo) FindRequest(ctx context.Context, requestID string) (*model.ExtensionRequest, error) {
	timer := utils.TrackDBOperation("find", "extension_requests")
	defer timer.ObserveDuration()

	if requestID == "" {
		return nil, fmt.Errorf("requestID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var request model.ExtensionRequest
	err := r.MongoCollection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "extension_fetch_failed")
		return nil, fmt.Errorf("failed to fetch extension request: %w", err)
	}
	return &request, nil
}

// ListByStatus returns requests in a given status, newest first
func (r *ExtensionsRepo) ListByStatus(ctx context.Context, status string) ([]*model.ExtensionRequest, error) {
	timer := utils.TrackDBOperation("find", "extension_requests")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		utils.TrackError("database", "extension_list_failed")
		return nil, fmt.Errorf("failed to list extension requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*model.ExtensionRequest
	if err := cursor.All(ctx, &requests); err != nil {
		utils.TrackError("database", "extension_decode_failed")
		return nil, fmt.Errorf("failed to decode extension requests: %w", err)
	}
	return requests, nil
}

// TransitionStatus moves exactly one record from `from` to `to`. The status
// condition is part of the filter, so a request already decided matches
// nothing and the terminal state can never be overwritten.
func (r *ExtensionsRepo) TransitionStatus(ctx context.Context, requestID, from, to string) (bool, error) {
	timer := utils.TrackDBOperation("update", "extension_requests")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"request_id": requestID, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		utils.TrackError("database", "extension_transition_failed")
		return false, fmt.Errorf("failed to update extension request status: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *ExtensionsRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	timer := utils.TrackDBOperation("count", "extension_requests")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		utils.TrackError("database", "extension_count_failed")
		return 0, fmt.Errorf("failed to count extension requests: %w", err)
	}
	return count, nil
}
