package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OAUTH_CLIENT_ID", "lms-companion")
	t.Setenv("OAUTH_CALLBACK_URL", "https://relay.example.com/callback")
	t.Setenv("OAUTH_AUTHORIZE_URL", "https://id.example.com/oauth/authorize")
	t.Setenv("RELAY_BASE_URL", "https://relay.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "LMS Companion", cfg.AppName)
	require.Equal(t, []string{"openid", "profile", "email"}, cfg.Scopes)
	require.Equal(t, 5*time.Second, cfg.PollInterval)
	require.Equal(t, 60, cfg.PollMaxAttempts)
	require.Equal(t, 10*time.Second, cfg.PollRequestTimeout)
	require.Equal(t, 5*time.Minute, cfg.PollMaxWait)
}

func TestLoad_MissingClientID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OAUTH_CLIENT_ID", "")

	_, err := config.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "OAUTH_CLIENT_ID")
}

func TestLoad_NeedsAnAuthorizationSource(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OAUTH_AUTHORIZE_URL", "")

	_, err := config.Load()
	require.Error(t, err)

	t.Setenv("OAUTH_ISSUER_URL", "https://id.example.com")
	_, err = config.Load()
	require.NoError(t, err)
}

func TestPollPolicy_Mapping(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("POLL_MAX_ATTEMPTS", "7")
	t.Setenv("POLL_REQUEST_TIMEOUT", "1s")
	t.Setenv("POLL_MAX_WAIT", "30s")

	cfg, err := config.Load()
	require.NoError(t, err)

	policy := cfg.PollPolicy()
	require.Equal(t, 250*time.Millisecond, policy.Interval)
	require.Equal(t, 7, policy.MaxAttempts)
	require.Equal(t, time.Second, policy.RequestTimeout)
	require.Equal(t, 30*time.Second, policy.MaxWait)
}
