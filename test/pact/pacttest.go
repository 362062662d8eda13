//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "dashboard-api"
	ConsumerName = "admin-dashboard"

	StateAdminAccount = "admin account exists"
	StateSignedIn     = "admin is signed in"
	StateUsersSeeded  = "two users exist"
	StateUserMissing  = "no user with id 404"
)

const (
	AdminEmail    = "admin@example.com"
	AdminName     = "Ada Admin"
	AdminPassword = "pact-secret"

	// ConsumerToken is the bearer token the consumer presents; the provider
	// swaps it for a real one before verification.
	ConsumerToken = "pact-token"

	ExistingUserID = "1"
	MissingUserID  = "404"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the dashboard consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleUsers returns the users seeded for StateUsersSeeded.
func ExampleUsers() []map[string]any {
	return []map[string]any{
		{"id": ExistingUserID, "name": "Grace Hopper", "email": "grace@example.com", "role": "admin", "status": "active"},
		{"id": "2", "name": "Alan Turing", "email": "alan@example.com", "role": "user", "status": "inactive"},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
