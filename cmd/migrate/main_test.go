package main

import (
	"strings"
	"testing"

	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

func TestRunRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	err := run(logging.New("error"), nil)
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected a DATABASE_URL error, got %v", err)
	}
}
