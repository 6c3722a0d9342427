package credentialdb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/janhq/roombus/internal/domain/credential"
	"github.com/janhq/roombus/internal/utils/platformerrors"
)

// ErrKeyNotFound is returned when no row matches the lookup.
var ErrKeyNotFound = errors.New("api key not found")

// ErrKeyAlreadyActive is returned by Create when the project already has
// an active row — the repository-level guard backing the partial unique
// index on (project_id) WHERE is_active.
var ErrKeyAlreadyActive = errors.New("project already has an active api key")

// Repository is the GORM/Postgres-backed credential.Repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a Repository and migrates its schema.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(&ApiKey{}); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// NewAPIKeyRepository adapts Repository to the domain credential.Repository
// interface, mirroring the teacher's apikeyrepo.NewAPIKeyRepository constructor shape.
func NewAPIKeyRepository(db *gorm.DB) (credential.Repository, error) {
	return NewRepository(db)
}

func (r *Repository) Create(ctx context.Context, key *credential.Key) (*credential.Key, error) {
	model := fromDomain(key)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrKeyAlreadyActive
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create api key")
	}
	return model.EtoD(), nil
}

func (r *Repository) FindActiveByProject(ctx context.Context, projectID string) (*credential.Key, error) {
	var model ApiKey
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND is_active = ?", projectID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to fetch active api key")
	}
	return model.EtoD(), nil
}

func (r *Repository) FindByProjectAndHash(ctx context.Context, projectID, keyHash string) (*credential.Key, error) {
	var model ApiKey
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND key_hash = ? AND is_active = ?", projectID, keyHash, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to fetch api key by hash")
	}
	return model.EtoD(), nil
}

func (r *Repository) List(ctx context.Context) ([]credential.Key, error) {
	var models []ApiKey
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list api keys")
	}
	result := make([]credential.Key, 0, len(models))
	for _, m := range models {
		if domain := m.EtoD(); domain != nil {
			result = append(result, *domain)
		}
	}
	return result, nil
}

func (r *Repository) Revoke(ctx context.Context, projectID string) error {
	res := r.db.WithContext(ctx).Model(&ApiKey{}).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Update("is_active", false)
	if res.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, res.Error, "failed to revoke api key")
	}
	if res.RowsAffected == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (r *Repository) TouchLastUsed(ctx context.Context, id string, when time.Time) error {
	err := r.db.WithContext(ctx).Model(&ApiKey{}).
		Where("id = ?", id).
		Update("last_used_at", when).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to update last_used_at")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
