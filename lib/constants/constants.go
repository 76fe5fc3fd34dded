package constants

const (
	SSM_ROOT_PATH               = "/infrastructure"
	ALLOWED_ORIGINS             = "/infrastructure/ALLOWED_ORIGINS"
	DATABASE_RDS_PROXY_URL      = "/infrastructure/DATABASE_RDS_PROXY_URL"
	DATABASE_RDS_ENDPOINT       = "/infrastructure/DATABASE_RDS_ENDPOINT"
	DATABASE_PORT               = "/infrastructure/DATABASE_PORT"
	DATABASE_NAME               = "/infrastructure/DATABASE_NAME"
	DATABASE_USERNAME           = "/infrastructure/DATABASE_USERNAME"
	DATABASE_PASSWORD           = "/infrastructure/DATABASE_PASSWORD"
	SSL_MODE                    = "/infrastructure/SSL_MODE"
	COGNITO_USER_POOL_ID        = "/infrastructure/COGNITO_USER_POOL_ID"
	COGNITO_CLIENT_ID           = "/infrastructure/COGNITO_CLIENT_ID"
	DOCUMENTS_BUCKET            = "/infrastructure/DOCUMENTS_BUCKET"
	DOCUMENT_URL_EXPIRY         = "/infrastructure/DOCUMENT_URL_EXPIRY"
	INTERNAL_EMAIL_DOMAINS      = "/infrastructure/INTERNAL_EMAIL_DOMAINS"
	INTERNAL_IDENTITY_PROVIDERS = "/infrastructure/INTERNAL_IDENTITY_PROVIDERS"
	DRIVER_NAME                 = "postgres"
	AWS_REGION                  = "us-east-2"
	LOCALSTACK_ENDPOINT         = "http://docker.for.mac.host.internal:4566"
)
