package db

import (
	"context"
	"errors"
	"time"

	"github.com/Jayshxd/Open-Feast/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errMongoDisabled = errors.New("mongo uri not configured")

// ConnectMongo opens the image database. An empty MONGO_URI disables image
// uploads and is reported as an error so callers can log and continue.
func ConnectMongo(cfg config.Config) (*mongo.Database, error) {
	if cfg.MongoURI == "" {
		return nil, errMongoDisabled
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client.Database(cfg.MongoDatabase), nil
}
