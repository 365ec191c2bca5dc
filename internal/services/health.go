package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/config"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/repository"
)

// HealthStatus represents the health status of a service
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// RequiredAPIKeyIndexes names the indexes expected on the API key collection
var RequiredAPIKeyIndexes = []string{"key_1", "active_1", "key_1_active_1"}

const minAvailableConnections = 10

// HealthCheck represents a health check result
type HealthCheck struct {
	Service      string        `json:"service"`
	Status       HealthStatus  `json:"status"`
	Message      string        `json:"message,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

func (h *HealthCheck) finish(start time.Time, status HealthStatus, message string) *HealthCheck {
	h.Status = status
	h.Message = message
	h.ResponseTime = time.Since(start)
	return h
}

// DatabaseHealthChecker provides health check functionality for MongoDB
type DatabaseHealthChecker struct {
	client *mongo.Client
	db     *mongo.Database
	config *config.MongoDBConfig
}

// NewDatabaseHealthChecker creates a health checker sharing client
func NewDatabaseHealthChecker(client *mongo.Client, cfg *config.MongoDBConfig) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{
		client: client,
		db:     client.Database(cfg.Database),
		config: cfg,
	}
}

// Name implements HealthChecker
func (dhc *DatabaseHealthChecker) Name() string {
	return "mongodb"
}

// Check implements HealthChecker
func (dhc *DatabaseHealthChecker) Check(ctx context.Context) *HealthCheck {
	return dhc.CheckHealth(ctx)
}

// CheckHealth pings MongoDB and exercises the API key collection
func (dhc *DatabaseHealthChecker) CheckHealth(ctx context.Context) *HealthCheck {
	start := time.Now()

	healthCheck := &HealthCheck{
		Service:   "mongodb",
		Timestamp: start,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := dhc.client.Ping(ctx, nil); err != nil {
		return healthCheck.finish(start, HealthStatusUnhealthy, fmt.Sprintf("ping failed: %v", err))
	}

	if err := dhc.testDatabaseOperations(ctx); err != nil {
		return healthCheck.finish(start, HealthStatusDegraded, fmt.Sprintf("database operations failed: %v", err))
	}

	if err := dhc.testCollectionAccess(ctx); err != nil {
		return healthCheck.finish(start, HealthStatusDegraded, fmt.Sprintf("collection access failed: %v", err))
	}

	return healthCheck.finish(start, HealthStatusHealthy, "all checks passed")
}

// testDatabaseOperations tests basic database operations
func (dhc *DatabaseHealthChecker) testDatabaseOperations(ctx context.Context) error {
	// Test database stats
	var result bson.M
	err := dhc.db.RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).Decode(&result)
	if err != nil {
		return fmt.Errorf("failed to get database stats: %w", err)
	}

	return nil
}

// testCollectionAccess tests access to the API keys collection
func (dhc *DatabaseHealthChecker) testCollectionAccess(ctx context.Context) error {
	collection := dhc.db.Collection(dhc.config.APIKeyCollection)

	// Test collection stats
	var result bson.M
	err := dhc.db.RunCommand(ctx, bson.D{
		{Key: "collStats", Value: dhc.config.APIKeyCollection},
	}).Decode(&result)
	if err != nil {
		return fmt.Errorf("failed to get collection stats: %w", err)
	}

	// Test a simple count operation
	_, err = collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}

	return nil
}

// CheckConnectionPool reports degraded when fewer than minAvailableConnections
// server connections remain
func (dhc *DatabaseHealthChecker) CheckConnectionPool(ctx context.Context) *HealthCheck {
	start := time.Now()
	healthCheck := &HealthCheck{Service: "mongodb_pool", Timestamp: start}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var status struct {
		Connections *struct {
			Current   int32 `bson:"current"`
			Available int32 `bson:"available"`
		} `bson:"connections"`
	}
	if err := dhc.db.RunCommand(ctx, bson.D{{Key: "serverStatus", Value: 1}}).Decode(&status); err != nil {
		return healthCheck.finish(start, HealthStatusUnhealthy, fmt.Sprintf("failed to get server status: %v", err))
	}

	conns := status.Connections
	switch {
	case conns == nil:
		return healthCheck.finish(start, HealthStatusDegraded, "connection stats not available")
	case conns.Available < minAvailableConnections:
		return healthCheck.finish(start, HealthStatusDegraded,
			fmt.Sprintf("low available connections: %d current, %d available", conns.Current, conns.Available))
	default:
		return healthCheck.finish(start, HealthStatusHealthy,
			fmt.Sprintf("connection pool healthy: %d current, %d available", conns.Current, conns.Available))
	}
}

// CheckIndexes verifies the indexes dbsetup creates on the API key collection
func (dhc *DatabaseHealthChecker) CheckIndexes(ctx context.Context) *HealthCheck {
	start := time.Now()
	healthCheck := &HealthCheck{Service: "mongodb_indexes", Timestamp: start}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := dhc.db.Collection(dhc.config.APIKeyCollection).Indexes().List(ctx)
	if err != nil {
		return healthCheck.finish(start, HealthStatusUnhealthy, fmt.Sprintf("failed to list indexes: %v", err))
	}
	defer cursor.Close(ctx)

	var indexes []struct {
		Name string `bson:"name"`
	}
	if err := cursor.All(ctx, &indexes); err != nil {
		return healthCheck.finish(start, HealthStatusUnhealthy, fmt.Sprintf("failed to decode indexes: %v", err))
	}

	present := make(map[string]bool, len(indexes))
	for _, index := range indexes {
		present[index.Name] = true
	}

	var missing []string
	for _, name := range RequiredAPIKeyIndexes {
		if !present[name] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return healthCheck.finish(start, HealthStatusDegraded, fmt.Sprintf("missing indexes: %v", missing))
	}
	return healthCheck.finish(start, HealthStatusHealthy, "all required indexes present")
}

// GetDetailedHealth returns comprehensive health information
func (dhc *DatabaseHealthChecker) GetDetailedHealth(ctx context.Context) map[string]*HealthCheck {
	return map[string]*HealthCheck{
		"connectivity":    dhc.CheckHealth(ctx),
		"connection_pool": dhc.CheckConnectionPool(ctx),
		"indexes":         dhc.CheckIndexes(ctx),
	}
}

// RepositoryHealthChecker reports the in-memory stores as healthy along
// with their sizes
type RepositoryHealthChecker struct {
	wallets repository.WalletRepository
	tokens  repository.TokenRepository
}

// NewRepositoryHealthChecker creates a checker over the wallet and token stores
func NewRepositoryHealthChecker(wallets repository.WalletRepository, tokens repository.TokenRepository) *RepositoryHealthChecker {
	return &RepositoryHealthChecker{wallets: wallets, tokens: tokens}
}

// Name implements HealthChecker
func (r *RepositoryHealthChecker) Name() string {
	return "repositories"
}

// Check implements HealthChecker
func (r *RepositoryHealthChecker) Check(ctx context.Context) *HealthCheck {
	start := time.Now()
	healthCheck := &HealthCheck{Service: r.Name(), Timestamp: start}

	wallets, err := r.wallets.Count(ctx)
	if err != nil {
		return healthCheck.finish(start, HealthStatusUnhealthy, fmt.Sprintf("wallet store failed: %v", err))
	}
	tokens, err := r.tokens.Count(ctx)
	if err != nil {
		return healthCheck.finish(start, HealthStatusUnhealthy, fmt.Sprintf("token store failed: %v", err))
	}

	return healthCheck.finish(start, HealthStatusHealthy, fmt.Sprintf("%d wallets, %d tokens", wallets, tokens))
}

// Aggregate folds individual checks into one overall status: any unhealthy
// check makes the whole unhealthy, any degraded one makes it degraded
func Aggregate(checks map[string]*HealthCheck) HealthStatus {
	status := HealthStatusHealthy
	for _, check := range checks {
		switch check.Status {
		case HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case HealthStatusDegraded:
			status = HealthStatusDegraded
		}
	}
	return status
}
