package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hodie-labs/hodie-platform/internal/observability/metrics"
	"github.com/hodie-labs/hodie-platform/internal/userstore"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

var provisioningTracer = otel.Tracer("hodie.internal.provisioning")

// ErrDefaultKeyMissing means instant setup is impossible because no default
// API key was injected through configuration.
var ErrDefaultKeyMissing = errors.New("provisioning: default API key not configured")

// Defaults are the injected values written on instant setup.
type Defaults struct {
	APIKey          string
	APIKeyID        string
	AIProvider      string
	MaxTokensPerDay int
}

// Service ensures a user has AI-service access, performing instant setup
// when neither the remote service nor the local settings grant it.
type Service struct {
	store    userstore.Store
	checker  AccessChecker
	defaults Defaults
	logger   *logging.Logger
	metrics  *metrics.ProvisioningMetrics
	now      func() time.Time
}

// NewService constructs a provisioning service. checker may be nil when no
// access service is configured; every user then falls through to the local
// checks.
func NewService(store userstore.Store, checker AccessChecker, defaults Defaults, logger *logging.Logger, m *metrics.ProvisioningMetrics) *Service {
	if store == nil {
		panic("provisioning: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		checker:  checker,
		defaults: defaults,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// EnsureAccess guarantees the user can reach the AI service. Remote check
// first, then the local settings record, then instant setup. Check failures
// are logged and treated as "needs setup". The write path is idempotent: an
// existing assignment keeps its key.
func (s *Service) EnsureAccess(ctx context.Context, userID string) (bool, error) {
	ctx, span := provisioningTracer.Start(ctx, "provisioning.ensure_access")
	defer span.End()
	span.SetAttributes(attribute.String("hodie.user_id", userID))

	if s.checker != nil {
		valid, err := s.checker.HasValidAccess(ctx, userID)
		if err != nil {
			s.logger.Warn("access check failed, treating as needs setup", "error", err, "user_id", userID)
		} else if valid {
			s.metrics.ObserveEnsure("existing_remote")
			return true, nil
		}
	}

	if settings, ok := s.loadSettings(ctx, userID); ok && settings.HasKey() {
		s.metrics.ObserveEnsure("existing_settings")
		return true, nil
	}

	if err := s.instantSetup(ctx, userID); err != nil {
		s.metrics.ObserveEnsure("failed")
		span.RecordError(err)
		return false, err
	}

	s.metrics.ObserveEnsure("instant_setup")
	return true, nil
}

// loadSettings reads the manually configured settings record, if any.
// Malformed records are logged and ignored.
func (s *Service) loadSettings(ctx context.Context, userID string) (Settings, bool) {
	raw, err := s.store.Get(ctx, userstore.AISettingsKey(userID))
	if errors.Is(err, userstore.ErrNotFound) {
		return Settings{}, false
	}
	if err != nil {
		s.logger.Warn("settings read failed", "error", err, "user_id", userID)
		return Settings{}, false
	}

	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		s.logger.Warn("settings record malformed", "error", err, "user_id", userID)
		return Settings{}, false
	}
	return settings, true
}

// instantSetup writes the assignment and settings records for the user. An
// existing assignment is left as-is so repeated calls hand back the same
// key.
func (s *Service) instantSetup(ctx context.Context, userID string) error {
	if s.defaults.APIKey == "" {
		return ErrDefaultKeyMissing
	}

	assignment, err := s.loadAssignment(ctx, userID)
	if err != nil {
		return err
	}
	if assignment == nil {
		now := s.now().UTC()
		assignment = &Assignment{
			UserID:     userID,
			APIKeyID:   s.defaults.APIKeyID + "-" + uuid.NewString(),
			APIKey:     s.defaults.APIKey,
			AssignedAt: now,
			Status:     StatusActive,
			UsageStats: UsageStats{LastReset: now},
		}
		if err := s.saveJSON(ctx, userstore.APIAssignmentKey(userID), assignment); err != nil {
			return err
		}
	}

	settings := Settings{
		KimiK2APIKey:    assignment.APIKey,
		EnableAI:        true,
		AIProvider:      s.defaults.AIProvider,
		MaxTokensPerDay: s.defaults.MaxTokensPerDay,
	}
	if err := s.saveJSON(ctx, userstore.AISettingsKey(userID), settings); err != nil {
		return err
	}

	s.logger.Info("instant AI access setup completed", "user_id", userID, "api_key_id", assignment.APIKeyID)
	return nil
}

func (s *Service) loadAssignment(ctx context.Context, userID string) (*Assignment, error) {
	raw, err := s.store.Get(ctx, userstore.APIAssignmentKey(userID))
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("provisioning: load assignment: %w", err)
	}

	var assignment Assignment
	if err := json.Unmarshal([]byte(raw), &assignment); err != nil {
		// A corrupt assignment is replaced rather than surfaced.
		s.logger.Warn("assignment record malformed, replacing", "error", err, "user_id", userID)
		return nil, nil
	}
	return &assignment, nil
}

func (s *Service) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("provisioning: marshal %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("provisioning: save %s: %w", key, err)
	}
	return nil
}
