package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig holds the Bracket Store's MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

func LoadMongoConfig() MongoConfig {
	return MongoConfig{
		URI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database:   getEnv("MONGO_DATABASE", "progression"),
		Collection: getEnv("MONGO_BRACKET_COLLECTION", "brackets"),
	}
}

func NewMongoCollection(cfg MongoConfig) (*mongo.Collection, func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	return collection, client.Disconnect, nil
}
