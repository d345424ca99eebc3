package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/licensegate/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const licenseColumns = `id, key, client_name, expiry_date, is_used, device_id, is_active, last_validated, created_at, updated_at`

func scanLicense(row pgx.Row) (*models.License, error) {
	var l models.License
	err := row.Scan(&l.ID, &l.Key, &l.ClientName, &l.ExpiryDate, &l.IsUsed,
		&l.DeviceID, &l.IsActive, &l.LastValidated, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// --- Licenses ---

func (s *PostgresStore) GetLicenseByKey(ctx context.Context, key string) (*models.License, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+licenseColumns+` FROM licenses WHERE key = $1`,
		models.NormalizeKey(key))
	l, err := scanLicense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get license by key: %w", err)
	}
	return l, nil
}

// ActivateLicense binds the license to deviceID in a single conditional
// update. The filter re-checks the unused-or-same-device condition so the
// write only lands if the state read earlier still holds; a concurrent
// binding by another device makes the filter miss and is reported as
// ErrDeviceConflict.
func (s *PostgresStore) ActivateLicense(ctx context.Context, key, deviceID string) (*models.License, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE licenses
		 SET is_used = TRUE, device_id = $2, is_active = TRUE, last_validated = NOW(), updated_at = NOW()
		 WHERE key = $1 AND (is_used = FALSE OR device_id = $2)
		 RETURNING `+licenseColumns,
		models.NormalizeKey(key), deviceID)
	l, err := scanLicense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Filter missed: either the key is gone or another device holds it.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM licenses WHERE key = $1)`,
			models.NormalizeKey(key)).Scan(&exists); err != nil {
			return nil, fmt.Errorf("activate license: %w", err)
		}
		if exists {
			return nil, ErrDeviceConflict
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("activate license: %w", err)
	}
	return l, nil
}

// TouchLastValidated records a successful re-validation without touching any
// decision fields. Audit-only; callers treat failures as best-effort.
func (s *PostgresStore) TouchLastValidated(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE licenses SET last_validated = NOW() WHERE key = $1`,
		models.NormalizeKey(key))
	if err != nil {
		return fmt.Errorf("touch last validated: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateLicense(ctx context.Context, lic *models.License) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO licenses (id, key, client_name, expiry_date, is_used, device_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		lic.ID, models.NormalizeKey(lic.Key), lic.ClientName, lic.ExpiryDate,
		lic.IsUsed, lic.DeviceID, lic.IsActive, lic.CreatedAt, lic.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create license: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLicenses(ctx context.Context) ([]*models.License, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+licenseColumns+` FROM licenses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	defer rows.Close()

	var licenses []*models.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		licenses = append(licenses, l)
	}
	return licenses, rows.Err()
}

func (s *PostgresStore) DeleteLicense(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM licenses WHERE key = $1`, models.NormalizeKey(key))
	if err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
