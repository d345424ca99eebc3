// Package license implements the activation decision core: given a license
// record and a requesting device, decide whether to accept, reject, or no-op,
// and what the record must look like afterward.
package license

import (
	"time"

	"github.com/kiranshivaraju/licensegate/pkg/models"
)

// Outcome is the result of evaluating a validation request.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeNotFound
	OutcomeExpired
	OutcomeDeviceConflict
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeDeviceConflict:
		return "device_conflict"
	default:
		return "unknown"
	}
}

// Decision is the evaluator's verdict. WriteNeeded is false when the stored
// record already equals the target state {isUsed:true, deviceId:D,
// isActive:true}, so repeated validations from the bound device never clobber
// out-of-band administrative edits.
type Decision struct {
	Outcome     Outcome
	WriteNeeded bool
}

// Evaluate applies the activation rules in fixed precedence: existence, then
// expiry, then device conflict. A record that is both expired and bound to
// another device reports Expired. Expiry is inclusive at calendar-date
// granularity: the license is valid through the whole of its expiry date.
// Pure: no I/O, no clock reads, no mutation of rec.
func Evaluate(rec *models.License, deviceID string, today time.Time) Decision {
	if rec == nil {
		return Decision{Outcome: OutcomeNotFound}
	}

	if dateOnly(today).After(dateOnly(rec.ExpiryDate)) {
		return Decision{Outcome: OutcomeExpired}
	}

	if rec.IsUsed && !rec.BoundTo(deviceID) {
		return Decision{Outcome: OutcomeDeviceConflict}
	}

	return Decision{
		Outcome:     OutcomeAccepted,
		WriteNeeded: !(rec.BoundTo(deviceID) && rec.IsActive),
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
