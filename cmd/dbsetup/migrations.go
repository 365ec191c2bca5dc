package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/config"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
)

const migrationsCollection = "migrations"

// Migration is one reversible schema step on the API key collection
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, keys *mongo.Collection) error
	Down        func(ctx context.Context, keys *mongo.Collection) error
}

// apiKeyIndexes are created by the migrations below; their names are the
// ones the database health check looks for
var apiKeyIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("key_1"),
	},
	{
		Keys:    bson.D{{Key: "active", Value: 1}},
		Options: options.Index().SetName("active_1"),
	},
	{
		Keys:    bson.D{{Key: "key", Value: 1}, {Key: "active", Value: 1}},
		Options: options.Index().SetName("key_1_active_1"),
	},
}

func indexName(model mongo.IndexModel) string {
	if model.Options == nil || model.Options.Name == nil {
		return ""
	}
	return *model.Options.Name
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Create API keys collection with unique key index",
		Up: func(ctx context.Context, keys *mongo.Collection) error {
			_, err := keys.Indexes().CreateOne(ctx, apiKeyIndexes[0])
			return err
		},
		Down: func(ctx context.Context, keys *mongo.Collection) error {
			return keys.Drop(ctx)
		},
	},
	{
		Version:     2,
		Description: "Add last_used field to existing API keys",
		Up: func(ctx context.Context, keys *mongo.Collection) error {
			_, err := keys.UpdateMany(ctx,
				bson.M{"last_used": bson.M{"$exists": false}},
				bson.M{"$set": bson.M{"last_used": nil}},
			)
			return err
		},
		Down: func(ctx context.Context, keys *mongo.Collection) error {
			_, err := keys.UpdateMany(ctx, bson.M{}, bson.M{"$unset": bson.M{"last_used": ""}})
			return err
		},
	},
	{
		Version:     3,
		Description: "Add active and compound lookup indexes",
		Up: func(ctx context.Context, keys *mongo.Collection) error {
			_, err := keys.Indexes().CreateMany(ctx, apiKeyIndexes[1:])
			return err
		},
		Down: func(ctx context.Context, keys *mongo.Collection) error {
			for _, model := range apiKeyIndexes[1:] {
				if _, err := keys.Indexes().DropOne(ctx, indexName(model)); err != nil {
					logger.GetLogger().Warn("Failed to drop index",
						zap.String("index", indexName(model)),
						zap.Error(err),
					)
				}
			}
			return nil
		},
	},
}

// pendingMigrations returns the migrations newer than current, in order
func pendingMigrations(all []Migration, current int) []Migration {
	var pending []Migration
	for _, m := range all {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	return pending
}

// findMigration returns the migration with the given version
func findMigration(all []Migration, version int) (Migration, bool) {
	for _, m := range all {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}

// MigrationManager applies and rolls back migrations, recording each applied
// version in the migrations collection
type MigrationManager struct {
	db         *mongo.Database
	config     *config.MongoDBConfig
	migrations []Migration
}

// NewMigrationManager creates a manager over db
func NewMigrationManager(db *mongo.Database, cfg *config.MongoDBConfig) *MigrationManager {
	return &MigrationManager{db: db, config: cfg, migrations: migrations}
}

func (mm *MigrationManager) keys() *mongo.Collection {
	return mm.db.Collection(mm.config.APIKeyCollection)
}

// CurrentVersion returns the highest applied version, 0 when none ran
func (mm *MigrationManager) CurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := mm.db.Collection(migrationsCollection).
		FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})).
		Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}

	return result.Version, nil
}

// MigrateUp runs all pending migrations
func (mm *MigrationManager) MigrateUp(ctx context.Context) error {
	log := logger.GetLogger()

	current, err := mm.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	log.Info("Current migration version", zap.Int("version", current))

	pending := pendingMigrations(mm.migrations, current)
	for _, m := range pending {
		log.Info("Running migration", zap.Int("version", m.Version), zap.String("description", m.Description))

		if err := m.Up(ctx, mm.keys()); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}

		_, err := mm.db.Collection(migrationsCollection).InsertOne(ctx, bson.M{
			"version":    m.Version,
			"applied_at": time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}

	if len(pending) == 0 {
		log.Info("Database schema is up to date")
	}
	return nil
}

// MigrateDown rolls back the last applied migration
func (mm *MigrationManager) MigrateDown(ctx context.Context) error {
	log := logger.GetLogger()

	current, err := mm.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if current == 0 {
		log.Info("No migrations to roll back")
		return nil
	}

	m, ok := findMigration(mm.migrations, current)
	if !ok {
		return fmt.Errorf("migration %d not found", current)
	}

	log.Info("Rolling back migration", zap.Int("version", m.Version), zap.String("description", m.Description))

	if err := m.Down(ctx, mm.keys()); err != nil {
		return fmt.Errorf("rollback of migration %d failed: %w", m.Version, err)
	}

	if _, err := mm.db.Collection(migrationsCollection).DeleteOne(ctx, bson.M{"version": current}); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}
	return nil
}
