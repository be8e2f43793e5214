package utils

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient is a global variable holding the MongoDB client
var MongoClient *mongo.Client

// InitMongoClient connects the global client with the supplied options;
// callers build them from config.LoadDatabaseConfig
func InitMongoClient(opts *options.ClientOptions) {
	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	MongoClient = client
}

// CloseMongoClient disconnects the global client, for shutdown
func CloseMongoClient(ctx context.Context) {
	if MongoClient == nil {
		return
	}
	if err := MongoClient.Disconnect(ctx); err != nil {
		log.Printf("Error disconnecting MongoDB client: %v", err)
	}
}
