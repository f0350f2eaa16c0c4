package testutils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"

	"github.com/nfrund/loginflow/internal/config"
	"github.com/nfrund/loginflow/internal/database"
	"github.com/nfrund/loginflow/internal/server"
)

// ConfigForTests returns a validated configuration built only from defaults
// and vars. Neither the process environment nor a .env file is consulted.
func ConfigForTests(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()

	cfg, err := config.Load(afero.NewMemMapFs(), "", func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}
	return cfg
}

// DevServer starts the development auth server on a random local port with
// the given users ("name:password,...") and per-minute rate limit. It is
// closed when the test ends.
func DevServer(t *testing.T, users string, rateLimit int) *httptest.Server {
	t.Helper()

	s, err := server.New(config.Server{
		Users:       users,
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
		RateLimit:   rateLimit,
	}, server.WithStoreOptions(database.WithCost(bcrypt.MinCost)))
	if err != nil {
		t.Fatalf("failed to create dev server: %v", err)
	}

	ts := httptest.NewServer(s.E)
	t.Cleanup(ts.Close)
	return ts
}
