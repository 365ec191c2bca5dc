package crud

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/mutex"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/sanitizer"
)

// MaxIDLength is the longest id accepted after sanitization
const MaxIDLength = 50

// waitThreshold is the shortest natural-key wait worth recording
const waitThreshold = time.Millisecond

// Repository is the persistence capability the pipeline depends on.
// FindByID returns (nil, nil) when nothing matches, FindAll never returns a
// nil slice, Update returns ErrNotFound for a missing id and Delete reports
// whether a record was removed. Implementations hand out copies.
type Repository[T any, P any, F any] interface {
	Create(ctx context.Context, entity *T) (*T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	FindAll(ctx context.Context, filter F) ([]*T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Hooks plug entity-specific sanitization and validation into the pipeline.
// C is the create payload, P the update patch and F the list filter.
type Hooks[T any, C any, P any, F any] interface {
	SanitizeCreate(ctx context.Context, input C) (*T, error)
	SanitizeUpdate(ctx context.Context, patch P) (P, error)
	SanitizeFilters(ctx context.Context, filter F) (F, error)
	ValidateCreate(ctx context.Context, entity *T) error
	// ValidateUpdate receives the target id so that a natural key is only a
	// conflict when another record holds it
	ValidateUpdate(ctx context.Context, id string, patch P) error
}

// NaturalKeyer is implemented by hooks whose entities carry a unique natural
// key. The pipeline holds a per-key lock across validation and persistence.
type NaturalKeyer[T any, P any] interface {
	CreateKey(entity *T) string
	// UpdateKey returns "" when the patch leaves the key unchanged
	UpdateKey(patch P) string
}

// WaitRecorder observes natural-key lock waits
type WaitRecorder interface {
	RecordMutexWait(waited time.Duration)
}

// Option configures a Service
type Option func(*options)

type options struct {
	log      *logger.Logger
	locks    *mutex.KeyedMutex
	recorder WaitRecorder
}

// WithLogger sets the service logger
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithKeyedMutex shares a natural-key lock table across services
func WithKeyedMutex(locks *mutex.KeyedMutex) Option {
	return func(o *options) { o.locks = locks }
}

// WithWaitRecorder reports natural-key lock waits
func WithWaitRecorder(r WaitRecorder) Option {
	return func(o *options) { o.recorder = r }
}

// Service runs sanitize, validate and persist for one entity type
type Service[T any, C any, P any, F any] struct {
	repo     Repository[T, P, F]
	hooks    Hooks[T, C, P, F]
	keyer    NaturalKeyer[T, P]
	locks    *mutex.KeyedMutex
	ownLocks bool
	recorder WaitRecorder
	log      *logger.Logger
}

// NewService creates a Service over repo. If hooks implements NaturalKeyer,
// creates and key-changing updates are serialised per key.
func NewService[T any, C any, P any, F any](repo Repository[T, P, F], hooks Hooks[T, C, P, F], opts ...Option) *Service[T, C, P, F] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service[T, C, P, F]{
		repo:     repo,
		hooks:    hooks,
		recorder: o.recorder,
		log:      o.log,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}

	if keyer, ok := hooks.(NaturalKeyer[T, P]); ok {
		s.keyer = keyer
		s.locks = o.locks
		if s.locks == nil {
			s.locks = mutex.New(5 * time.Minute)
			s.ownLocks = true
		}
	}

	return s
}

// Repository exposes the underlying store for entity-specific finders
func (s *Service[T, C, P, F]) Repository() Repository[T, P, F] {
	return s.repo
}

// Create sanitizes input, validates the result and persists it
func (s *Service[T, C, P, F]) Create(ctx context.Context, input C) (*T, error) {
	entity, err := s.create(ctx, input)
	if err != nil {
		s.log.WithContext(ctx).Warn("Create operation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}
	return entity, nil
}

func (s *Service[T, C, P, F]) create(ctx context.Context, input C) (*T, error) {
	sanitized, err := s.hooks.SanitizeCreate(ctx, input)
	if err != nil {
		return nil, err
	}

	if s.keyer != nil {
		unlock, err := s.lockKey(ctx, s.keyer.CreateKey(sanitized))
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	if err := s.hooks.ValidateCreate(ctx, sanitized); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, sanitized)
}

// FindByID returns the entity or nil when it does not exist
func (s *Service[T, C, P, F]) FindByID(ctx context.Context, id string) (*T, error) {
	sanitizedID, err := SanitizeID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to find entity: %w", err)
	}

	entity, err := s.repo.FindByID(ctx, sanitizedID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entity: %w", err)
	}
	return entity, nil
}

// FindAll returns every entity matching filter, possibly none
func (s *Service[T, C, P, F]) FindAll(ctx context.Context, filter F) ([]*T, error) {
	sanitized, err := s.hooks.SanitizeFilters(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find entities: %w", err)
	}

	entities, err := s.repo.FindAll(ctx, sanitized)
	if err != nil {
		return nil, fmt.Errorf("failed to find entities: %w", err)
	}
	if entities == nil {
		entities = []*T{}
	}
	return entities, nil
}

// Update sanitizes patch, validates it against id and applies it
func (s *Service[T, C, P, F]) Update(ctx context.Context, id string, patch P) (*T, error) {
	entity, err := s.update(ctx, id, patch)
	if err != nil {
		s.log.WithContext(ctx).Warn("Update operation failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}
	return entity, nil
}

func (s *Service[T, C, P, F]) update(ctx context.Context, id string, patch P) (*T, error) {
	sanitizedID, err := SanitizeID(id)
	if err != nil {
		return nil, err
	}

	sanitized, err := s.hooks.SanitizeUpdate(ctx, patch)
	if err != nil {
		return nil, err
	}

	if s.keyer != nil {
		if key := s.keyer.UpdateKey(sanitized); key != "" {
			unlock, err := s.lockKey(ctx, key)
			if err != nil {
				return nil, err
			}
			defer unlock()
		}
	}

	if err := s.hooks.ValidateUpdate(ctx, sanitizedID, sanitized); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, sanitizedID, sanitized)
}

// Delete removes the entity and reports whether it existed
func (s *Service[T, C, P, F]) Delete(ctx context.Context, id string) (bool, error) {
	sanitizedID, err := SanitizeID(id)
	if err != nil {
		return false, fmt.Errorf("failed to delete entity: %w", err)
	}

	deleted, err := s.repo.Delete(ctx, sanitizedID)
	if err != nil {
		return false, fmt.Errorf("failed to delete entity: %w", err)
	}
	return deleted, nil
}

// Stop releases the lock table when the service created its own
func (s *Service[T, C, P, F]) Stop() {
	if s.ownLocks {
		s.locks.Stop()
	}
}

func (s *Service[T, C, P, F]) lockKey(ctx context.Context, key string) (func(), error) {
	unlock, waited, err := s.locks.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	if waited > waitThreshold && s.recorder != nil {
		s.recorder.RecordMutexWait(waited)
	}
	return unlock, nil
}

// SanitizeID reduces id to at most 50 alphanumerics
func SanitizeID(id string) (string, error) {
	sanitized := sanitizer.SanitizeString(id, sanitizer.Options{
		AlphanumericOnly: true,
		MaxLength:        MaxIDLength,
	})
	if sanitized == "" {
		return "", ErrInvalidID
	}
	return sanitized, nil
}
