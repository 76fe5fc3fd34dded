package config

import (
	"testing"
	"time"

	"dashboard/lib/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func fullParams() map[string]string {
	return map[string]string{
		constants.DATABASE_RDS_ENDPOINT:       "db.internal",
		constants.DATABASE_PORT:               "5432",
		constants.DATABASE_NAME:               "dashboard",
		constants.DATABASE_USERNAME:           "app",
		constants.DATABASE_PASSWORD:           "secret",
		constants.ALLOWED_ORIGINS:             "https://app.example.com, https://admin.example.com",
		constants.COGNITO_USER_POOL_ID:        "us-east-2_pool",
		constants.COGNITO_CLIENT_ID:           "client",
		constants.DOCUMENTS_BUCKET:            "docs",
		constants.INTERNAL_EMAIL_DOMAINS:      "Example.com,builders.example.com",
		constants.INTERNAL_IDENTITY_PROVIDERS: "AzureAD",
	}
}

func Test_Load_Success(t *testing.T) {
	cfg, err := Load(fullParams(), env(map[string]string{"IS_LOCAL": "true", "LOG_LEVEL": "DEBUG"}))
	require.NoError(t, err)

	assert.True(t, cfg.IsLocal)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, defaultDocumentURLExpiry, cfg.DocumentURLExpiry)
	assert.NoError(t, cfg.RequireDatabase())
	assert.NoError(t, cfg.RequireCognito())
	assert.NoError(t, cfg.RequireDocuments())
}

func Test_Load_PrefersProxy(t *testing.T) {
	params := fullParams()
	params[constants.DATABASE_RDS_PROXY_URL] = "proxy.internal"

	cfg, err := Load(params, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "proxy.internal", cfg.Database.Host)
}

func Test_Load_DocumentExpiry(t *testing.T) {
	params := fullParams()
	params[constants.DOCUMENT_URL_EXPIRY] = "5m"

	cfg, err := Load(params, env(nil))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.DocumentURLExpiry)

	params[constants.DOCUMENT_URL_EXPIRY] = "soon"
	_, err = Load(params, env(nil))
	assert.Error(t, err)

	params[constants.DOCUMENT_URL_EXPIRY] = "-1m"
	_, err = Load(params, env(nil))
	assert.Error(t, err)
}

func Test_Require_ReportsMissing(t *testing.T) {
	cfg, err := Load(map[string]string{}, env(nil))
	require.NoError(t, err)

	err = cfg.RequireDatabase()
	require.Error(t, err)
	assert.Contains(t, err.Error(), constants.DATABASE_RDS_ENDPOINT)
	assert.Contains(t, err.Error(), constants.DATABASE_PASSWORD)

	assert.Error(t, cfg.RequireCognito())
	assert.Error(t, cfg.RequireDocuments())
}

func Test_IsInternalEmail(t *testing.T) {
	cfg, err := Load(fullParams(), env(nil))
	require.NoError(t, err)

	assert.True(t, cfg.IsInternalEmail("pm@example.com"))
	assert.True(t, cfg.IsInternalEmail("pm@EXAMPLE.com"))
	assert.True(t, cfg.IsInternalEmail("super@builders.example.com"))
	assert.False(t, cfg.IsInternalEmail("owner@client.org"))
	assert.False(t, cfg.IsInternalEmail("not-an-email"))
	assert.False(t, cfg.IsInternalEmail("trailing@"))
}

func Test_IsInternalProvider(t *testing.T) {
	cfg, err := Load(fullParams(), env(nil))
	require.NoError(t, err)

	assert.True(t, cfg.IsInternalProvider("AzureAD"))
	assert.True(t, cfg.IsInternalProvider("azuread"))
	assert.False(t, cfg.IsInternalProvider("Google"))
	assert.False(t, cfg.IsInternalProvider(""))
}

func Test_IsOriginAllowed(t *testing.T) {
	cfg, err := Load(fullParams(), env(nil))
	require.NoError(t, err)

	assert.True(t, cfg.IsOriginAllowed("https://app.example.com"))
	assert.False(t, cfg.IsOriginAllowed("https://evil.example.com"))

	cfg.AllowedOrigins = []string{"*"}
	assert.True(t, cfg.IsOriginAllowed("https://anything.example.com"))
}
