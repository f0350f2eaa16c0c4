package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/nfrund/loginflow/internal/login"
)

func TestLogin_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLogin(reg)

	m.Observe(login.OutcomeInvalid, 0)
	m.Observe(login.OutcomeSuccess, 50*time.Millisecond)
	m.Observe(login.OutcomeFailure, 20*time.Millisecond)
	m.Observe(login.OutcomeFailure, 20*time.Millisecond)
	m.Observe(login.OutcomeLockout, 20*time.Millisecond)
	m.Observe(login.OutcomeLocked, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("invalid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Attempts.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("locked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lockouts))

	// Only verifier round trips are timed.
	assert.Equal(t, 3, testutil.CollectAndCount(m.Duration))
}

func TestLogin_ObserverFromController(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLogin(reg)

	ctrl := login.New(login.ProbeFunc(func() bool { return false }), nil, login.WithObserver(m))
	defer ctrl.Close()
	ctrl.SetUsername("user")
	ctrl.SetPassword("pass")
	ctrl.Login()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("offline")))
}

func TestHTTP_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTP(reg)

	m.Record("/api/login", http.StatusOK)
	m.Record("/api/login", http.StatusUnauthorized)
	m.Record("/api/login", http.StatusUnauthorized)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/login", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/login", "200")))
}
