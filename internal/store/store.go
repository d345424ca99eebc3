package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/licensegate/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrDeviceConflict is returned by ActivateLicense when the license exists
// but is bound to a different device. The conflict is detected by the update
// filter itself, so two racing devices can never both bind.
var ErrDeviceConflict = errors.New("license bound to another device")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetLicenseByKey(ctx context.Context, key string) (*models.License, error)
	ActivateLicense(ctx context.Context, key, deviceID string) (*models.License, error)
	TouchLastValidated(ctx context.Context, key string) error
	CreateLicense(ctx context.Context, lic *models.License) error
	ListLicenses(ctx context.Context) ([]*models.License, error)
	DeleteLicense(ctx context.Context, key string) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}
