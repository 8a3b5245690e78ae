// Package testutil holds helpers shared by tests of concurrent components.
package testutil

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// DefaultWait bounds how long Eventually polls
const DefaultWait = 2 * time.Second

// Eventually polls cond until it holds, failing the test after DefaultWait
func Eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(DefaultWait)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// WSURL converts a test server's http URL into a ws URL for path
func WSURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}
