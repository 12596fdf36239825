// Package e2e provides end-to-end tests for the wisp server.
// Each scenario boots the real server against a disposable database
// through the harness in internal/e2e.
//
// Run with: go test -tags=e2e ./test/e2e/...
//
//go:build e2e

package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/wisp-cms/wisp/internal/e2e"
)

func TestMain(m *testing.M) {
	code := m.Run()
	e2e.Cleanup(context.Background())
	os.Exit(code)
}
