package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JOBMATCH_BASE_URL", "https://jobmatch.example.com/")
	t.Setenv("JOBMATCH_SSE_ERROR_GRACE", "not-a-duration")

	cfg := Load()
	assert.Equal(t, "https://jobmatch.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "/login", cfg.API.LoginPath)
	assert.Equal(t, 3*time.Second, cfg.Updates.ErrorGrace)
	assert.Equal(t, "session_updates", cfg.Updates.Exchange)
	assert.Equal(t, 10, cfg.Upload.MaxFileSizeMB)
	require.NoError(t, cfg.Validate())
}

func TestAPIBaseURLKeepsPrefix(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/api", apiBaseURL("http://localhost:8080/api/"))
	assert.Equal(t, "http://localhost:8080/api", apiBaseURL("http://localhost:8080"))
}

func TestValidate(t *testing.T) {
	t.Setenv("JOBMATCH_CREDENTIAL_STORE", "db")
	t.Setenv("DB_URL", "")
	cfg := Load()
	assert.ErrorContains(t, cfg.Validate(), "DB_URL")

	cfg.Credential.Store = "memory"
	cfg.Upload.Mode = "direct"
	assert.ErrorContains(t, cfg.Validate(), "R2_BUCKET")

	cfg.R2 = R2Config{AccountID: "acc", Bucket: "resumes", AccessKey: "ak", SecretKey: "sk"}
	require.NoError(t, cfg.Validate())

	cfg.Updates.Transport = "amqp"
	cfg.Updates.RabbitMQURL = ""
	assert.ErrorContains(t, cfg.Validate(), "RABBITMQ_URL")
}
