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

type NotificationsRepo struct {
	MongoCollection *mongo.Collection
}

func GetNotificationsRepo(client *mongo.Client) *NotificationsRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := utils.GetEnvAsString("NOTIFICATIONS_COLLECTION", "notifications")
	return &NotificationsRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

func (r *NotificationsRepo) CreateNotification(ctx context.Context, notification *model.Notification) error {
	timer := utils.TrackDBOperation("insert", "notifications")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if notification == nil || notification.Title == "" {
		utils.TrackError("database", "invalid_notification_data")
		return fmt.Errorf("notification title is required")
	}

	if _, err := r.MongoCollection.InsertOne(ctx, notification); err != nil {
		utils.TrackError("database", "notification_creation_failed")
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationsRepo) ListNotifications(ctx context.Context) ([]*model.Notification, error) {
	timer := utils.TrackDBOperation("find", "notifications")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.TrackError("database", "notification_list_failed")
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*model.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		utils.TrackError("database", "notification_decode_failed")
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, notificationID string) (bool, error) {
	timer := utils.TrackDBOperation("update", "notifications")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"notification_id": notificationID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		utils.TrackError("database", "notification_mark_read_failed")
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return result.MatchedCount > 0, nil
}
