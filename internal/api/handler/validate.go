package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/licensegate/internal/api/response"
	"github.com/kiranshivaraju/licensegate/internal/license"
)

// Canonical rejection messages; clients display these verbatim.
const (
	msgNotFound       = "License is not valid for use."
	msgExpired        = "License has expired."
	msgDeviceConflict = "License is already in use on another device."
)

// Validator defines the interface the validate handler depends on.
type Validator interface {
	Validate(ctx context.Context, licenseKey, deviceID string) (*license.Result, error)
}

// NewValidateHandler returns an http.HandlerFunc for POST /api/v1/license/validate.
// Input errors are rejected before the persistence layer is touched.
func NewValidateHandler(svc Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LicenseKey string `json:"licenseKey"`
			DeviceID   string `json:"deviceId"`
			Action     string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Reject(w, "Invalid JSON body.")
			return
		}

		if req.LicenseKey == "" {
			response.Reject(w, "licenseKey is required.")
			return
		}
		if req.DeviceID == "" {
			response.Reject(w, "deviceId is required.")
			return
		}
		if req.Action != "" && req.Action != "validate" {
			response.Reject(w, "Unsupported action.")
			return
		}

		result, err := svc.Validate(r.Context(), req.LicenseKey, req.DeviceID)
		if err != nil {
			slog.Error("license validation failed", "error", err)
			response.Internal(w)
			return
		}

		switch result.Outcome {
		case license.OutcomeNotFound:
			response.Reject(w, msgNotFound)
		case license.OutcomeExpired:
			response.Reject(w, msgExpired)
		case license.OutcomeDeviceConflict:
			response.Reject(w, msgDeviceConflict)
		case license.OutcomeAccepted:
			lic := result.License
			deviceID := req.DeviceID
			if lic.DeviceID != nil {
				deviceID = *lic.DeviceID
			}
			response.Validated(w, validateResponse{
				Success:    true,
				Message:    "License validated successfully.",
				DeviceID:   deviceID,
				ClientName: lic.ClientName,
				ExpiryDate: lic.ExpiryDate.UTC().Format(time.DateOnly),
				IsActive:   true,
			})
		default:
			response.Internal(w)
		}
	}
}

type validateResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DeviceID   string `json:"deviceId"`
	ClientName string `json:"clientName"`
	ExpiryDate string `json:"expiryDate"`
	IsActive   bool   `json:"isActive"`
}

// NewLivenessHandler returns the static GET payload clients probe before
// submitting a validation.
func NewLivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Validated(w, map[string]any{
			"success": true,
			"message": "License validation service is running.",
		})
	}
}
