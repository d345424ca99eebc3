package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// License represents one issued license and its device binding state.
// Key is stored lowercase; lookups are case-insensitive.
type License struct {
	ID            uuid.UUID  `db:"id"             json:"id"`
	Key           string     `db:"key"            json:"key"`
	ClientName    string     `db:"client_name"    json:"client_name"`
	ExpiryDate    time.Time  `db:"expiry_date"    json:"expiry_date"`
	IsUsed        bool       `db:"is_used"        json:"is_used"`
	DeviceID      *string    `db:"device_id"      json:"device_id,omitempty"`
	IsActive      bool       `db:"is_active"      json:"is_active"`
	LastValidated *time.Time `db:"last_validated" json:"last_validated,omitempty"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"     json:"updated_at"`
}

// NormalizeKey canonicalizes a license key for lookup and storage.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// BoundTo reports whether the license is bound to the given device.
func (l *License) BoundTo(deviceID string) bool {
	return l.IsUsed && l.DeviceID != nil && *l.DeviceID == deviceID
}
