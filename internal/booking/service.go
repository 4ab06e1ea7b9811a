package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hodie-labs/hodie-platform/internal/observability/metrics"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

var wizardTracer = otel.Tracer("hodie.internal.booking")

// Service drives wizard sessions through the state machine, persisting each
// transition to the session store.
type Service struct {
	store   SessionStore
	logger  *logging.Logger
	metrics *metrics.WizardMetrics
	now     func() time.Time
}

// NewService constructs a booking wizard service.
func NewService(store SessionStore, logger *logging.Logger, m *metrics.WizardMetrics) *Service {
	if store == nil {
		panic("booking: session store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger, metrics: m, now: time.Now}
}

// Start opens a new wizard session at the choose step.
func (s *Service) Start(ctx context.Context, userID string) (*Session, error) {
	ctx, span := wizardTracer.Start(ctx, "booking.wizard.start")
	defer span.End()

	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Step:      StepChoose,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, session); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("hodie.wizard_id", session.ID))
	s.logger.Info("wizard session started", "wizard_id", session.ID, "user_id", userID)
	return session, nil
}

// Get loads a wizard session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// SelectMethod records the collection method (and displayed panel) on the
// choose step.
func (s *Service) SelectMethod(ctx context.Context, id string, method CollectionMethod, panelID string) (*Session, error) {
	return s.transition(ctx, id, "select", func(session *Session) error {
		return session.SelectMethod(method, panelID)
	})
}

// SetLocation records the location-step fields.
func (s *Service) SetLocation(ctx context.Context, id, address, date, slot string) (*Session, error) {
	return s.transition(ctx, id, "location", func(session *Session) error {
		return session.SetLocationDetails(address, date, slot, s.now())
	})
}

// SetPayment records the card fields on the booking step.
func (s *Service) SetPayment(ctx context.Context, id string, p Payment) (*Session, error) {
	return s.transition(ctx, id, "payment", func(session *Session) error {
		return session.SetPayment(p)
	})
}

// Continue advances the wizard one step.
func (s *Service) Continue(ctx context.Context, id string) (*Session, error) {
	return s.transition(ctx, id, "continue", func(session *Session) error {
		return session.Continue()
	})
}

// Back moves the wizard one step back where a back transition exists.
func (s *Service) Back(ctx context.Context, id string) (*Session, error) {
	return s.transition(ctx, id, "back", func(session *Session) error {
		return session.Back()
	})
}

// Complete moves booking → confirmation. No payment call is made.
func (s *Service) Complete(ctx context.Context, id string) (*Session, error) {
	return s.transition(ctx, id, "complete", func(session *Session) error {
		return session.Complete()
	})
}

// Close discards the wizard session. Nothing about the booking survives; a
// second Close for the same id reports ErrSessionNotFound, so the close
// behavior fires exactly once per invocation.
func (s *Service) Close(ctx context.Context, id string) error {
	ctx, span := wizardTracer.Start(ctx, "booking.wizard.close")
	defer span.End()
	span.SetAttributes(attribute.String("hodie.wizard_id", id))

	session, err := s.store.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	s.metrics.ObserveClosed()
	s.logger.Info("wizard session closed", "wizard_id", id, "step", string(session.Step))
	return nil
}

func (s *Service) transition(ctx context.Context, id, action string, apply func(*Session) error) (*Session, error) {
	ctx, span := wizardTracer.Start(ctx, fmt.Sprintf("booking.wizard.%s", action))
	defer span.End()
	span.SetAttributes(attribute.String("hodie.wizard_id", id))

	session, err := s.store.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	from := session.Step
	if err := apply(session); err != nil {
		s.metrics.ObserveTransition(string(from), action, "blocked")
		span.RecordError(err)
		return nil, err
	}

	if err := s.store.Save(ctx, session); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), action, "ok")
	if from != session.Step {
		s.logger.Info("wizard step changed",
			"wizard_id", id,
			"from", string(from),
			"to", string(session.Step),
		)
	}
	return session, nil
}
