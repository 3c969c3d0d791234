package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"atspro/internal/ats"
	"atspro/internal/config"
	"atspro/internal/errors"
	"atspro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Sup3rSecret!"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "8080"},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			Name:        filepath.Join(t.TempDir(), "cli.db"),
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			JWTSecret:  "0123456789abcdef0123456789abcdef",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := Execute(context.Background(), cfg, errors.NewNopLogger())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, testConfig(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "atspro version "+Version)
	assert.Contains(t, out, "Git commit:")
}

func TestMigrateCommand(t *testing.T) {
	cfg := testConfig(t)
	_, err := run(t, cfg, "migrate")
	require.NoError(t, err)

	_, err = os.Stat(cfg.Database.Name)
	assert.NoError(t, err)
}

func TestMatchCommand(t *testing.T) {
	dir := t.TempDir()
	resumePath := filepath.Join(dir, "resume.txt")
	jobPath := filepath.Join(dir, "job.txt")
	outPath := filepath.Join(dir, "result.json")
	require.NoError(t, os.WriteFile(resumePath, []byte("Senior Go developer. PostgreSQL, Docker and Kubernetes in production."), 0o600))
	require.NoError(t, os.WriteFile(jobPath, []byte("Backend engineer: Go, PostgreSQL, Kubernetes."), 0o600))

	_, err := run(t, testConfig(t), "match", resumePath, jobPath, "--format", "json", "-o", outPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var analysis models.ResumeAnalysis
	require.NoError(t, json.Unmarshal(raw, &analysis))
	assert.Greater(t, analysis.MatchScore, 0.0)
	assert.Contains(t, analysis.JobDescription, "Backend engineer")
}

func TestMatchCommandRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, testConfig(t), "match", "a.txt", "b.txt", "--format", "xml")
	assert.Error(t, err)
}

func TestMetricsRollupCommand(t *testing.T) {
	cfg := testConfig(t)

	a, err := newApp(cfg, errors.NewNopLogger())
	require.NoError(t, err)
	_, err = a.ats.Signup(context.Background(), ats.SignupRequest{
		Email:           "hr@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FullName:        "Hannah Recruiter",
		Role:            models.RoleHR,
		CompanyName:     "Acme Corp",
	}, &ats.Actor{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	a.Close()

	today := time.Now().UTC().Format(time.DateOnly)
	out, err := run(t, cfg, "metrics", "rollup", "--date", today)
	require.NoError(t, err)
	assert.Contains(t, out, "HR USER")
	assert.Contains(t, out, today)

	_, err = run(t, cfg, "metrics", "rollup", "--date", "yesterday")
	assert.Error(t, err)
}

func TestApplyServeFlags(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.TLS.Mode = "disabled"

	require.NoError(t, serveCmd.Flags().Set("port", "9443"))
	require.NoError(t, serveCmd.Flags().Set("tls-mode", "server"))
	t.Cleanup(func() {
		_ = serveCmd.Flags().Set("port", "")
		_ = serveCmd.Flags().Set("tls-mode", "")
		serveCmd.Flags().Lookup("port").Changed = false
		serveCmd.Flags().Lookup("tls-mode").Changed = false
	})

	applyServeFlags(cfg)
	assert.Equal(t, "9443", cfg.Server.Port)
	assert.Equal(t, "server", cfg.Server.TLS.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestUserPromptValidators(t *testing.T) {
	assert.NoError(t, validateEmail("pat@example.com"))
	assert.Error(t, validateEmail("not-an-email"))

	assert.NoError(t, validateRequired("Acme"))
	assert.Error(t, validateRequired("   "))

	assert.NoError(t, validatePassword(testPassword))
	assert.Error(t, validatePassword("short"))

	role, err := askRole("hr")
	require.NoError(t, err)
	assert.Equal(t, models.RoleHR, role)

	_, err = askRole("admin")
	assert.Error(t, err)

	value := "given@example.com"
	assert.NoError(t, ask(&value, "Email", validateEmail))
	assert.Equal(t, "given@example.com", value)
}

func TestNewAppReleasesMetricsPortOnFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"
	cfg.Observability = config.ObservabilityConfig{
		Enabled:     true,
		ServiceName: "atspro-test",
		Prometheus:  config.PrometheusConfig{Enabled: true, Port: port},
	}

	_, err = newApp(cfg, errors.NewNopLogger())
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		l, err := net.Listen("tcp", ":"+port)
		if err != nil {
			return false
		}
		_ = l.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)
}
