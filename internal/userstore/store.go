// Package userstore provides the per-user record store backing onboarding
// flags, API key assignments, AI settings and the one-shot signup payload.
// Records are string-keyed and string-valued; writes are single-key and
// last-writer-wins, with no cross-key transactions beyond SetAndDelete.
package userstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record exists for a key.
var ErrNotFound = errors.New("userstore: record not found")

// Store defines the record store interface.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes the value for key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes the record for key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
	// SetAndDelete writes setKey=value and removes deleteKey as a single
	// atomic action, so a concurrent reader never observes the deleted
	// record together with an unset flag.
	SetAndDelete(ctx context.Context, setKey, value, deleteKey string) error
}

// OnboardingDone is the sentinel value marking completed onboarding.
const OnboardingDone = "true"

// SignupPayloadKey is the one-shot comprehensive signup payload written by
// the external signup form. It is consumed and deleted exactly once.
const SignupPayloadKey = "hodie_comprehensive_signup_data"

// OnboardingKey returns the per-user onboarding flag key.
func OnboardingKey(userID string) string {
	return "hodie_onboarding_" + userID
}

// APIAssignmentKey returns the per-user API key assignment record key.
func APIAssignmentKey(userID string) string {
	return "api_assignment_" + userID
}

// AISettingsKey returns the per-user AI settings record key.
func AISettingsKey(userID string) string {
	return "aiSettings_" + userID
}
