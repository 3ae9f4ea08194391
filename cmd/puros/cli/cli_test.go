package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/puros/internal/app"
	"github.com/utafrali/puros/internal/config"
	"github.com/utafrali/puros/pkg/middleware"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(VersionInfo{Version: "test", Commit: "abc"})
	root.AddCommand(NewServeCommand(), NewMigrateCommand(), NewTokenCommand(), NewSeedCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test.abc")
}

func TestMigrate_ListDoesNotConnect(t *testing.T) {
	out, err := execute(t, "migrate", "--list")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.NotEmpty(t, lines)
	assert.Equal(t, "001_profiles.up.sql", lines[0])
	assert.IsNonDecreasing(t, lines)
}

func TestToken_SignsVerifiableToken(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cli-test-secret")
	t.Setenv("LOG_LEVEL", "error")

	out, err := execute(t, "token", "--sub", "user-1", "--email", "ana@example.com")
	require.NoError(t, err)

	v, err := middleware.NewJWTVerifier("cli-test-secret", "").Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "user-1", v.ID)
	assert.Equal(t, "ana@example.com", v.Email)
}

func TestToken_RefusedInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_JWT_SECRET", strings.Repeat("s", 40))
	t.Setenv("LOG_LEVEL", "error")

	_, err := execute(t, "token", "--sub", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "production")
}

func TestToken_RequiresSubject(t *testing.T) {
	_, err := execute(t, "token")
	require.Error(t, err)
}

func TestSeed_PopulatesRunningAPI(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("AUTH_JWT_SECRET", "seed-test-secret")
	t.Setenv("RATE_LIMIT_RPS", "0")
	cfg, err := config.Load()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.NewApp(cfg, logger)
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	defer func() {
		srv.Close()
		require.NoError(t, a.Shutdown())
	}()

	verifier := middleware.NewJWTVerifier(cfg.JWTSecret, "")
	summary, err := seed(context.Background(), seedOptions{apiURL: srv.URL, users: 3, reviews: 6, seed: 7}, verifier, logger)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.users)
	assert.Equal(t, 3, summary.follows)
	assert.Equal(t, 6, summary.reviews)
}

func TestSeed_RequiresUsers(t *testing.T) {
	_, err := seed(context.Background(), seedOptions{users: 0}, middleware.NewJWTVerifier("x", ""), slog.Default())
	require.Error(t, err)
}
