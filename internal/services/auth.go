package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/config"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
)

var (
	ErrInvalidAPIKey  = errors.New("invalid API key")
	ErrInactiveAPIKey = errors.New("API key is inactive")
	ErrDatabaseError  = errors.New("database error")
)

const lookupTimeout = 5 * time.Second

// Connect opens a pooled MongoDB client and verifies it with a ping
func Connect(ctx context.Context, cfg *config.MongoDBConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)

	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetMinPoolSize(cfg.MaxPoolSize / 4)
	clientOptions.SetMaxConnIdleTime(30 * time.Minute)
	clientOptions.SetMaxConnecting(cfg.MaxPoolSize / 2)

	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)
	clientOptions.SetSocketTimeout(30 * time.Second)
	clientOptions.SetServerSelectionTimeout(5 * time.Second)
	clientOptions.SetHeartbeatInterval(10 * time.Second)

	clientOptions.SetCompressors([]string{"snappy", "zlib", "zstd"})
	clientOptions.SetReadPreference(readpref.SecondaryPreferred())
	clientOptions.SetRetryWrites(true)
	clientOptions.SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// AuthService validates API keys stored in MongoDB
type AuthService struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *logger.Logger
}

// NewAuthService creates an AuthService on an existing client and makes sure
// the unique key index exists
func NewAuthService(ctx context.Context, client *mongo.Client, cfg *config.MongoDBConfig, log *logger.Logger) (*AuthService, error) {
	if log == nil {
		log = logger.NewNop()
	}

	collection := client.Database(cfg.Database).Collection(cfg.APIKeyCollection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// An equivalent index created by dbsetup is not an error worth failing on
		log.Warn("Failed to ensure API key index", zap.Error(err))
	}

	return &AuthService{
		client:     client,
		collection: collection,
		log:        log.Component("auth"),
	}, nil
}

// ValidateAPIKey looks key up and checks that it is active
func (a *AuthService) ValidateAPIKey(ctx context.Context, key string) (*models.APIKey, error) {
	if key == "" {
		return nil, ErrInvalidAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var apiKey models.APIKey
	err := a.collection.FindOne(ctx, bson.M{"key": key}).Decode(&apiKey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidAPIKey
		}
		a.log.WithContext(ctx).Error("API key lookup failed", zap.Error(err))
		return nil, ErrDatabaseError
	}

	if !apiKey.Active {
		return nil, ErrInactiveAPIKey
	}

	go a.updateLastUsed(apiKey.ID)

	return &apiKey, nil
}

// updateLastUsed stamps last_used without holding up the request
func (a *AuthService) updateLastUsed(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"last_used": time.Now()}}

	if _, err := a.collection.UpdateOne(ctx, filter, update); err != nil {
		a.log.Debug("Failed to update API key last_used", zap.Error(err))
	}
}

// Close disconnects the MongoDB client
func (a *AuthService) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	return a.client.Disconnect(ctx)
}
