package authclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/loginflow/internal/login"
	"github.com/nfrund/loginflow/internal/testutils"
)

var _ login.CredentialVerifier = (*Client)(nil)

func TestClient_AgainstDevServer(t *testing.T) {
	ts := testutils.DevServer(t, "user:pass", 100)
	c := New(ts.URL + "/")
	ctx := context.Background()

	token, err := c.Authenticate(ctx, "user", "pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = c.Authenticate(ctx, "user", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = c.Authenticate(ctx, "", "")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "validation_failed", se.Code)
}

func TestClient_RateLimited(t *testing.T) {
	ts := testutils.DevServer(t, "user:pass", 1)
	c := New(ts.URL)

	_, err := c.Authenticate(context.Background(), "user", "pass")
	require.NoError(t, err)
	_, err = c.Authenticate(context.Background(), "user", "pass")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestClient_TransportAndContextErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := New(ts.URL).Authenticate(ctx, "user", "pass")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = New(ts.URL, WithTimeout(20*time.Millisecond)).Authenticate(context.Background(), "user", "pass")
	assert.Error(t, err)

	ts.Close()
	_, err = New(ts.URL).Authenticate(context.Background(), "user", "pass")
	assert.Error(t, err)
}

func TestClient_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer ts.Close()

	_, err := New(ts.URL).Authenticate(context.Background(), "user", "pass")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "auth server returned 502", se.Error())
}

func TestClient_DrivesController(t *testing.T) {
	ts := testutils.DevServer(t, "user:pass", 100)
	ctrl := login.New(login.ProbeFunc(func() bool { return true }), New(ts.URL))
	defer ctrl.Close()

	ctrl.SetUsername("user")
	ctrl.SetPassword("wrong")
	ctrl.Login()
	ctrl.Wait()
	assert.Equal(t, 1, ctrl.State().FailureCount)

	ctrl.SetPassword("pass")
	ctrl.Login()
	ctrl.Wait()
	s := ctrl.State()
	assert.True(t, s.NavigateHome)
	assert.Zero(t, s.FailureCount)
	_, ok := s.TokenValue()
	assert.True(t, ok)
}
