// Package booking implements the four-step blood-test booking wizard:
// choose → location → booking → confirmation, strictly linear, with Back
// available only from location and booking. Nothing is persisted beyond the
// wizard session itself; on close the booking vanishes.
package booking

import (
	"errors"
	"time"
)

// Step is a wizard step.
type Step string

const (
	StepChoose       Step = "choose"
	StepLocation     Step = "location"
	StepBooking      Step = "booking"
	StepConfirmation Step = "confirmation"
)

// CollectionMethod is how the sample is collected.
type CollectionMethod string

const (
	MethodLab  CollectionMethod = "lab"
	MethodHome CollectionMethod = "home"
)

var (
	// ErrMethodRequired blocks Continue on the choose step until a
	// collection method is picked.
	ErrMethodRequired = errors.New("booking: collection method required to continue")
	// ErrInvalidMethod rejects methods outside lab/home.
	ErrInvalidMethod = errors.New("booking: invalid collection method")
	// ErrUnknownPanel rejects panel ids outside the fixed catalog.
	ErrUnknownPanel = errors.New("booking: unknown panel")
	// ErrInvalidTransition rejects an action not available on the current step.
	ErrInvalidTransition = errors.New("booking: action not available on this step")
	// ErrNoBack rejects Back from steps without a back transition.
	ErrNoBack = errors.New("booking: no back transition from this step")
	// ErrPastDate rejects home-visit dates before today, mirroring the
	// date picker minimum.
	ErrPastDate = errors.New("booking: home visit date must not be in the past")
	// ErrUnknownSlot rejects time slots outside the fixed seven.
	ErrUnknownSlot = errors.New("booking: unknown time slot")
)

// Selection is the transient in-memory record collected by the wizard.
type Selection struct {
	Method   CollectionMethod `json:"method,omitempty"`
	PanelID  string           `json:"panel_id,omitempty"`
	Address  string           `json:"address,omitempty"`
	Date     string           `json:"date,omitempty"` // YYYY-MM-DD
	TimeSlot string           `json:"time_slot,omitempty"`
}

// Payment holds the card fields collected on the booking step. They are
// never validated and never transmitted anywhere.
type Payment struct {
	CardNumber string `json:"card_number,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Session is one wizard invocation. It lives only until Close or expiry.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Step      Step      `json:"step"`
	Selection Selection `json:"selection"`
	Payment   Payment   `json:"payment"`
	CreatedAt time.Time `json:"created_at"`
}

// SelectMethod records the collection method on the choose step. The panel
// id is carried along when provided but has no effect on later steps.
func (s *Session) SelectMethod(method CollectionMethod, panelID string) error {
	if s.Step != StepChoose {
		return ErrInvalidTransition
	}
	if method != MethodLab && method != MethodHome {
		return ErrInvalidMethod
	}
	if panelID != "" {
		if _, ok := PanelByID(panelID); !ok {
			return ErrUnknownPanel
		}
	}
	s.Selection.Method = method
	s.Selection.PanelID = panelID
	return nil
}

// SetLocationDetails records the home-visit fields on the location step.
// None of the fields is mandatory; Continue advances regardless. A provided
// date must not be in the past and a provided slot must be one of the fixed
// seven, mirroring what the pickers can produce.
func (s *Session) SetLocationDetails(address, date, slot string, now time.Time) error {
	if s.Step != StepLocation {
		return ErrInvalidTransition
	}
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return ErrPastDate
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(today) {
			return ErrPastDate
		}
	}
	if slot != "" && !ValidSlot(slot) {
		return ErrUnknownSlot
	}
	s.Selection.Address = address
	s.Selection.Date = date
	s.Selection.TimeSlot = slot
	return nil
}

// SetPayment records the card fields on the booking step. No validation.
func (s *Session) SetPayment(p Payment) error {
	if s.Step != StepBooking {
		return ErrInvalidTransition
	}
	s.Payment = p
	return nil
}

// CanContinue reports whether Continue is enabled on the current step. Only
// the choose step has a guard; the location step advances with any field
// combination, including none.
func (s *Session) CanContinue() bool {
	switch s.Step {
	case StepChoose:
		return s.Selection.Method == MethodLab || s.Selection.Method == MethodHome
	case StepLocation:
		return true
	default:
		return false
	}
}

// Continue advances choose → location and location → booking.
func (s *Session) Continue() error {
	switch s.Step {
	case StepChoose:
		if !s.CanContinue() {
			return ErrMethodRequired
		}
		s.Step = StepLocation
		return nil
	case StepLocation:
		s.Step = StepBooking
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Back moves location → choose and booking → location. Confirmation has no
// back transition, only Close.
func (s *Session) Back() error {
	switch s.Step {
	case StepLocation:
		s.Step = StepChoose
		return nil
	case StepBooking:
		s.Step = StepLocation
		return nil
	default:
		return ErrNoBack
	}
}

// Complete transitions booking → confirmation unconditionally. No payment
// processing happens.
func (s *Session) Complete() error {
	if s.Step != StepBooking {
		return ErrInvalidTransition
	}
	s.Step = StepConfirmation
	return nil
}

// Total is the fixed two-tier price keyed on collection method only: 420
// for home visits, 320 otherwise. The displayed panel never changes it.
func (s *Session) Total() int {
	if s.Selection.Method == MethodHome {
		return totalHome
	}
	return totalLab
}

// MethodLabel is the human label for the chosen collection method.
func (s *Session) MethodLabel() string {
	if s.Selection.Method == MethodHome {
		return "Home visit"
	}
	return "Partner lab visit"
}

// Summary is the booking-step recap.
type Summary struct {
	MethodLabel string `json:"method_label"`
	Total       int    `json:"total"`
}

// Summarize computes the booking-step summary.
func (s *Session) Summarize() Summary {
	return Summary{MethodLabel: s.MethodLabel(), Total: s.Total()}
}

// NextSteps is the static confirmation guidance, branching on collection
// method only.
func (s *Session) NextSteps() []string {
	if s.Selection.Method == MethodHome {
		return []string{
			"A certified phlebotomist will visit your address at the chosen slot.",
			"Fast for 8-10 hours before your appointment; water is fine.",
			"Results appear on your dashboard within 2-3 working days.",
		}
	}
	return []string{
		"Visit either partner lab at a time that suits you; no appointment needed.",
		"Bring photo ID and fast for 8-10 hours beforehand; water is fine.",
		"Results appear on your dashboard within 2-3 working days.",
	}
}
