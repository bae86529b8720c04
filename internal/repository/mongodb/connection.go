package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 3 * time.Second

type Repository struct {
	// connection closer function
	Disconnect func()

	client   *mongo.Client
	database string
	logger   *zap.Logger
}

func NewConnection(logger *zap.Logger, uri string, database string) (Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Error("db connection failed", zap.String("uri", uri))
		return Repository{}, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return Repository{}, err
	}

	closer := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect the DB: " + err.Error())
		}
	}

	logger.Info("connected to the event database", zap.String("database", database))

	return Repository{
		Disconnect: closer,
		client:     client,
		database:   database,
		logger:     logger,
	}, nil
}
