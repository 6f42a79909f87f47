// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"os"
	"strings"
	"testing"
)

// IsolateEnv unsets every environment variable starting with prefix and
// restores them when the test ends. Tests that load configuration use it
// so variables from the developer's shell cannot leak in. Like t.Setenv it
// cannot be used in parallel tests.
func IsolateEnv(t testing.TB, prefix string) {
	t.Helper()

	snapshot := map[string]string{}
	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, prefix) {
			snapshot[key] = value
		}
	}
	for key := range snapshot {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetting %s: %v", key, err)
		}
	}

	t.Cleanup(func() {
		for _, kv := range os.Environ() {
			key, _, _ := strings.Cut(kv, "=")
			if strings.HasPrefix(key, prefix) {
				_ = os.Unsetenv(key)
			}
		}
		for key, value := range snapshot {
			_ = os.Setenv(key, value)
		}
	})
}
