// Package config gathers the SSM parameters and environment flags a Lambda
// needs into one value that is built at cold start and handed to the
// repositories and handlers that need it.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dashboard/lib/constants"
)

const defaultDocumentURLExpiry = 15 * time.Minute

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	Username string
	Password string
	SSLMode  string
}

// Config is the per-Lambda runtime configuration
type Config struct {
	IsLocal              bool
	LogLevel             string
	Database             DatabaseConfig
	AllowedOrigins       []string
	CognitoUserPoolID    string
	CognitoClientID      string
	DocumentsBucket      string
	DocumentURLExpiry    time.Duration
	InternalEmailDomains []string
	// Cognito provider names of the company identity providers, lowercased
	InternalIdentityProviders []string
}

// Load builds a Config from SSM parameters and the process environment.
// getenv is normally os.Getenv.
func Load(params map[string]string, getenv func(string) string) (*Config, error) {
	isLocal, _ := strconv.ParseBool(getenv("IS_LOCAL"))

	cfg := &Config{
		IsLocal:  isLocal,
		LogLevel: getenv("LOG_LEVEL"),
		Database: DatabaseConfig{
			Host:     params[constants.DATABASE_RDS_ENDPOINT],
			Port:     params[constants.DATABASE_PORT],
			Name:     params[constants.DATABASE_NAME],
			Username: params[constants.DATABASE_USERNAME],
			Password: params[constants.DATABASE_PASSWORD],
			SSLMode:  params[constants.SSL_MODE],
		},
		AllowedOrigins:            splitList(params[constants.ALLOWED_ORIGINS]),
		CognitoUserPoolID:         params[constants.COGNITO_USER_POOL_ID],
		CognitoClientID:           params[constants.COGNITO_CLIENT_ID],
		DocumentsBucket:           params[constants.DOCUMENTS_BUCKET],
		DocumentURLExpiry:         defaultDocumentURLExpiry,
		InternalEmailDomains:      splitList(strings.ToLower(params[constants.INTERNAL_EMAIL_DOMAINS])),
		InternalIdentityProviders: splitList(strings.ToLower(params[constants.INTERNAL_IDENTITY_PROVIDERS])),
	}

	// Prefer the RDS proxy when one is configured
	if proxy := params[constants.DATABASE_RDS_PROXY_URL]; proxy != "" {
		cfg.Database.Host = proxy
	}

	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "require"
	}

	if raw := params[constants.DOCUMENT_URL_EXPIRY]; raw != "" {
		expiry, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", constants.DOCUMENT_URL_EXPIRY, err)
		}
		if expiry <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", constants.DOCUMENT_URL_EXPIRY)
		}
		cfg.DocumentURLExpiry = expiry
	}

	return cfg, nil
}

// RequireDatabase checks that every database parameter is present
func (c *Config) RequireDatabase() error {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, constants.DATABASE_RDS_ENDPOINT)
	}
	if c.Database.Port == "" {
		missing = append(missing, constants.DATABASE_PORT)
	}
	if c.Database.Name == "" {
		missing = append(missing, constants.DATABASE_NAME)
	}
	if c.Database.Username == "" {
		missing = append(missing, constants.DATABASE_USERNAME)
	}
	if c.Database.Password == "" {
		missing = append(missing, constants.DATABASE_PASSWORD)
	}
	return missingErr(missing)
}

// RequireCognito checks the user pool settings used by user management
func (c *Config) RequireCognito() error {
	var missing []string
	if c.CognitoUserPoolID == "" {
		missing = append(missing, constants.COGNITO_USER_POOL_ID)
	}
	if c.CognitoClientID == "" {
		missing = append(missing, constants.COGNITO_CLIENT_ID)
	}
	return missingErr(missing)
}

// RequireDocuments checks the bucket used for project documents
func (c *Config) RequireDocuments() error {
	if c.DocumentsBucket == "" {
		return missingErr([]string{constants.DOCUMENTS_BUCKET})
	}
	return nil
}

// IsInternalEmail reports whether the email belongs to one of the company domains
func (c *Config) IsInternalEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, internal := range c.InternalEmailDomains {
		if domain == internal {
			return true
		}
	}
	return false
}

// IsInternalProvider reports whether the Cognito identity provider is one of the company providers
func (c *Config) IsInternalProvider(providerName string) bool {
	providerName = strings.ToLower(strings.TrimSpace(providerName))
	if providerName == "" {
		return false
	}
	for _, internal := range c.InternalIdentityProviders {
		if providerName == internal {
			return true
		}
	}
	return false
}

// IsOriginAllowed reports whether a CORS origin is in the allow list
func (c *Config) IsOriginAllowed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return errors.New("missing SSM parameters: " + strings.Join(missing, ", "))
}
