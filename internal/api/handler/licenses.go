package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/licensegate/internal/api/response"
	"github.com/kiranshivaraju/licensegate/internal/store"
	"github.com/kiranshivaraju/licensegate/pkg/models"
)

// Invalidator drops cached validation state after admin writes.
type Invalidator interface {
	Invalidate(ctx context.Context, licenseKey string)
}

// NewCreateLicenseHandler returns an http.HandlerFunc for POST /api/v1/admin/licenses.
func NewCreateLicenseHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LicenseKey string `json:"licenseKey"`
			ClientName string `json:"clientName"`
			ExpiryDate string `json:"expiryDate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.LicenseKey == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "licenseKey is required", nil)
			return
		}
		expiry, err := time.Parse(time.DateOnly, req.ExpiryDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"expiryDate must be a YYYY-MM-DD date", nil)
			return
		}

		now := time.Now().UTC()
		lic := &models.License{
			ID:         uuid.New(),
			Key:        models.NormalizeKey(req.LicenseKey),
			ClientName: req.ClientName,
			ExpiryDate: expiry,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := s.CreateLicense(r.Context(), lic); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "DUPLICATE_KEY",
					"A license with this key already exists", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to create license", nil)
			return
		}

		response.Created(w, lic)
	}
}

// NewListLicensesHandler returns an http.HandlerFunc for GET /api/v1/admin/licenses.
func NewListLicensesHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		licenses, err := s.ListLicenses(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list licenses", nil)
			return
		}
		if licenses == nil {
			licenses = []*models.License{}
		}
		response.JSON(w, licenses)
	}
}

// NewDeleteLicenseHandler returns an http.HandlerFunc for
// DELETE /api/v1/admin/licenses/{key}. Cached validation state is dropped so
// a deleted license stops validating immediately.
func NewDeleteLicenseHandler(s store.Store, inv Invalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if err := s.DeleteLicense(r.Context(), key); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND",
					"No license with this key", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to delete license", nil)
			return
		}

		inv.Invalidate(r.Context(), key)
		response.NoContent(w)
	}
}
