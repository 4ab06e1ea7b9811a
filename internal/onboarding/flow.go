// Package onboarding implements the single-screen acknowledgement flow shown
// to first-time users. The flow itself holds no state: the completion side
// effect is delegated entirely to the session gate.
package onboarding

import "github.com/hodie-labs/hodie-platform/internal/identity"

// Screen is the onboarding content rendered for a user. There is a single
// acknowledgement action, no partial states and no validation.
type Screen struct {
	Greeting   string `json:"greeting"`
	Body       string `json:"body"`
	ActionText string `json:"action_text"`
}

// Content returns the onboarding screen for the user.
func Content(user *identity.User) Screen {
	greeting := "Welcome to Hodie"
	if user != nil && user.Name != "" {
		greeting = "Welcome to Hodie, " + user.Name
	}
	return Screen{
		Greeting:   greeting,
		Body:       "Track your health markers, book blood tests and chat with your AI health assistant, all in one place.",
		ActionText: "Get started",
	}
}
