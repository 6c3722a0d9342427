package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrAlreadyActive is returned by CreateKey when the project already has
// an active key.
var ErrAlreadyActive = errors.New("project already has an active api key")

// ErrNotFound is returned when a project has no key record.
var ErrNotFound = errors.New("api key not found")

var keyFormat = regexp.MustCompile(`^sa_(live|test)_[0-9a-f]{32}$`)

// Service orchestrates API key lifecycle operations for the Credential Gateway.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	env    string // "live" or "test", selects the key prefix on CreateKey
}

// NewService constructs a credential Service. env selects the key class
// ("live" or "test") embedded in newly issued keys; it defaults to "live".
func NewService(repo Repository, env string, logger zerolog.Logger) *Service {
	if env != "live" && env != "test" {
		env = "live"
	}
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "credential-service").Logger(),
		env:    env,
	}
}

// CreateKey issues a new API key for projectID. Fails with ErrAlreadyActive
// if an active key already exists for the project.
func (s *Service) CreateKey(ctx context.Context, projectID, description, createdBy string) (*Key, string, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, "", fmt.Errorf("projectId is required")
	}

	existing, err := s.repo.FindActiveByProject(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrAlreadyActive
	}

	rawKey, err := s.generateKey()
	if err != nil {
		return nil, "", err
	}

	record := &Key{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		KeyHash:     hashKey(rawKey),
		KeyPrefix:   rawKey[:12],
		CreatedAt:   time.Now().UTC(),
		IsActive:    true,
		CreatedBy:   createdBy,
		Description: description,
	}

	persisted, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("project_id", projectID).Str("key_id", persisted.ID).Msg("api key issued")
	return persisted, rawKey, nil
}

// Validate hashes the presented key and looks it up by (projectID, hash,
// isActive=true). On a match it schedules a best-effort lastUsedAt update
// and returns true; every other case returns false, without a reason.
func (s *Service) Validate(ctx context.Context, projectID, presentedKey string) bool {
	if !keyFormat.MatchString(presentedKey) {
		return false
	}

	key, err := s.repo.FindByProjectAndHash(ctx, projectID, hashKey(presentedKey))
	if err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("api key validation lookup failed")
		return false
	}
	if key == nil || !key.IsActive {
		return false
	}

	go func() {
		touchCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.repo.TouchLastUsed(touchCtx, key.ID, time.Now().UTC()); err != nil {
			s.logger.Warn().Err(err).Str("key_id", key.ID).Msg("failed to update last_used_at")
		}
	}()

	return true
}

// Describe returns the active key record for projectID, or ErrNotFound.
func (s *Service) Describe(ctx context.Context, projectID string) (*Key, error) {
	key, err := s.repo.FindActiveByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, ErrNotFound
	}
	return key, nil
}

// List returns every active key record.
func (s *Service) List(ctx context.Context) ([]Key, error) {
	return s.repo.List(ctx)
}

// Revoke marks the active key for projectID inactive.
func (s *Service) Revoke(ctx context.Context, projectID string) error {
	key, err := s.repo.FindActiveByProject(ctx, projectID)
	if err != nil {
		return err
	}
	if key == nil {
		return ErrNotFound
	}
	return s.repo.Revoke(ctx, projectID)
}

// generateKey produces a key of the form sa_(live|test)_<32 lowercase hex
// chars>, derived from 16 cryptographically random bytes.
func (s *Service) generateKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return fmt.Sprintf("sa_%s_%s", s.env, hex.EncodeToString(buf)), nil
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
