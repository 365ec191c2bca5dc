package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/config"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/services"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
)

const operationTimeout = 30 * time.Second

func main() {
	var (
		migrate     = flag.Bool("migrate", false, "Apply pending schema migrations (API key indexes)")
		rollback    = flag.Bool("rollback", false, "Roll back the last migration")
		seedData    = flag.Bool("seed", false, "Seed the API key collection with test keys")
		healthCheck = flag.Bool("health", false, "Run database health check")
		all         = flag.Bool("all", false, "Run migrate, seed and health (full setup)")
	)
	flag.Parse()

	if !*migrate && !*rollback && !*seedData && !*healthCheck && !*all {
		fmt.Println("Database Setup Utility")
		fmt.Println("Usage:")
		fmt.Println("  -migrate   Apply pending schema migrations")
		fmt.Println("  -rollback  Roll back the last migration")
		fmt.Println("  -seed      Seed database with test API keys")
		fmt.Println("  -health    Run database health check")
		fmt.Println("  -all       Run full setup (migrate + seed + health)")
		fmt.Println()
		fmt.Println("Environment Variables:")
		fmt.Println("  MONGODB_URI               MongoDB connection string")
		fmt.Println("  MONGODB_DATABASE          Database name")
		fmt.Println("  MONGODB_APIKEY_COLLECTION API keys collection name")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.ConnectTimeout)
	client, err := services.Connect(ctx, &cfg.MongoDB)
	cancel()
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()

	db := client.Database(cfg.MongoDB.Database)
	manager := NewMigrationManager(db, &cfg.MongoDB)

	steps := []struct {
		enabled bool
		name    string
		run     func(ctx context.Context) error
	}{
		{*rollback, "rollback", manager.MigrateDown},
		{*migrate || *all, "migrate", manager.MigrateUp},
		{*seedData || *all, "seed", func(ctx context.Context) error {
			return seedAPIKeys(ctx, db.Collection(cfg.MongoDB.APIKeyCollection))
		}},
		{*healthCheck || *all, "health", func(ctx context.Context) error {
			return runHealthCheck(ctx, client, &cfg.MongoDB)
		}},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		err := step.run(ctx)
		cancel()
		if err != nil {
			log.Fatal("Database setup step failed", zap.String("step", step.name), zap.Error(err))
		}
		log.Info("Database setup step completed", zap.String("step", step.name))
	}

	log.Info("Database setup completed successfully")
}

// runHealthCheck prints the detailed database health and fails when any
// check is unhealthy
func runHealthCheck(ctx context.Context, client *mongo.Client, cfg *config.MongoDBConfig) error {
	log := logger.GetLogger()

	checks := services.NewDatabaseHealthChecker(client, cfg).GetDetailedHealth(ctx)

	var failed []string
	for name, check := range checks {
		log.Info("Health check result",
			zap.String("check", name),
			zap.String("status", string(check.Status)),
			zap.Duration("response_time", check.ResponseTime),
			zap.String("message", check.Message),
		)
		if check.Status == services.HealthStatusUnhealthy {
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("health check failed for %v", failed)
	}
	return nil
}

// seedAPIKeys inserts a fixed set of test keys plus a few random ones into an
// empty collection
func seedAPIKeys(ctx context.Context, keys *mongo.Collection) error {
	log := logger.GetLogger()

	count, err := keys.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count existing documents: %w", err)
	}
	if count > 0 {
		log.Info("API keys already present, skipping seed", zap.Int64("count", count))
		return nil
	}

	seed, err := testAPIKeys(5, time.Now().UTC())
	if err != nil {
		return err
	}

	documents := make([]interface{}, 0, len(seed))
	for _, apiKey := range seed {
		documents = append(documents, apiKey)
	}

	result, err := keys.InsertMany(ctx, documents)
	if err != nil {
		return fmt.Errorf("failed to insert test API keys: %w", err)
	}
	log.Info("Created test API keys", zap.Int("count", len(result.InsertedIDs)))

	for _, apiKey := range seed {
		log.Info("Test API key",
			zap.String("key", apiKey.Key),
			zap.String("name", apiKey.Name),
			zap.Bool("active", apiKey.Active),
		)
	}
	return nil
}

// testAPIKeys returns the fixed seed keys followed by n random active ones
func testAPIKeys(n int, now time.Time) ([]models.APIKey, error) {
	keys := []models.APIKey{
		{Key: "test-api-key-1", Name: "Test API Key 1", Active: true, CreatedAt: now},
		{Key: "test-api-key-2", Name: "Test API Key 2", Active: true, CreatedAt: now},
		{Key: "inactive-test-key", Name: "Inactive Test Key", Active: false, CreatedAt: now},
	}

	for i := 0; i < n; i++ {
		randomKey, err := generateRandomAPIKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate random API key: %w", err)
		}
		keys = append(keys, models.APIKey{
			Key:       randomKey,
			Name:      fmt.Sprintf("Generated Test Key %d", i+1),
			Active:    true,
			CreatedAt: now,
		})
	}
	return keys, nil
}

// generateRandomAPIKey generates a cryptographically secure random API key
func generateRandomAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
