// Package main implements the AWS Cognito Post-Confirmation Lambda trigger.
//
// It creates the dashboard user row when someone confirms a self sign-up or
// signs in through an enterprise identity provider for the first time. New
// users start active with no division memberships; a manager or admin grants
// access afterwards.
//
// A user counts as internal when their email domain is one of the configured
// company domains or when they arrived through one of the configured company
// identity providers. Social providers such as Google do not count.
//
// The trigger never fails the confirmation: database problems are logged with
// a correlation id and the event is returned unchanged.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"dashboard/lib/clients"
	"dashboard/lib/config"
	"dashboard/lib/data"
	"dashboard/lib/models"
	"dashboard/lib/util"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserCreator creates a user unless one already exists for the Cognito sub
type UserCreator interface {
	EnsureUser(ctx context.Context, user *models.User) (*models.User, bool, error)
}

// Handler struct contains all dependencies for the Lambda function
type Handler struct {
	Users  UserCreator
	Config *config.Config
	Logger *logrus.Logger
}

// SignupRequest represents the extracted data from a Post-Confirmation event
type SignupRequest struct {
	CognitoID     string
	Email         string
	FirstName     string
	LastName      string
	Providers     []string
	CorrelationID string
}

const triggerConfirmSignUp = "PostConfirmation_ConfirmSignUp"

// Handle processes the Cognito Post-Confirmation trigger event
func (h *Handler) Handle(ctx context.Context, event events.CognitoEventUserPoolsPostConfirmation) (events.CognitoEventUserPoolsPostConfirmation, error) {
	correlationID := uuid.New().String()

	// Password resets also fire this trigger
	if event.TriggerSource != triggerConfirmSignUp {
		h.Logger.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"trigger_source": event.TriggerSource,
			"operation":      "Handle",
		}).Debug("Ignoring non sign-up confirmation")
		return event, nil
	}

	signupRequest, err := extractSignupData(event, correlationID)
	if err != nil {
		h.Logger.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"trigger_source": event.TriggerSource,
			"operation":      "Handle",
			"error":          err.Error(),
		}).Error("Failed to extract signup data from Cognito event")
		return event, nil
	}

	user, created, err := h.Users.EnsureUser(ctx, &models.User{
		CognitoID:  signupRequest.CognitoID,
		Email:      signupRequest.Email,
		FirstName:  signupRequest.FirstName,
		LastName:   signupRequest.LastName,
		IsInternal: h.isInternal(signupRequest),
	})
	if err != nil {
		h.Logger.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"cognito_id":     signupRequest.CognitoID,
			"operation":      "Handle",
			"error":          err.Error(),
		}).Error("Failed to create user, user can still login but may need admin assistance")
		return event, nil
	}

	h.Logger.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"user_id":        user.UserID,
		"created":        created,
		"is_internal":    user.IsInternal,
		"providers":      signupRequest.Providers,
		"operation":      "Handle",
	}).Info("Processed sign-up confirmation")

	return event, nil
}

// extractSignupData reads the user attributes of the event. Names come from the
// standard attributes, or from client metadata for the self sign-up form.
func extractSignupData(event events.CognitoEventUserPoolsPostConfirmation, correlationID string) (*SignupRequest, error) {
	attributes := event.Request.UserAttributes

	cognitoID := attributes["sub"]
	if cognitoID == "" {
		cognitoID = event.UserName
	}
	if cognitoID == "" {
		return nil, errors.New("cognito ID (sub) is empty")
	}

	email := strings.TrimSpace(attributes["email"])
	if email == "" {
		return nil, fmt.Errorf("email attribute is missing from Cognito event")
	}

	firstName := attributes["given_name"]
	lastName := attributes["family_name"]
	if firstName == "" {
		firstName = event.Request.ClientMetadata["firstName"]
	}
	if lastName == "" {
		lastName = event.Request.ClientMetadata["lastName"]
	}

	return &SignupRequest{
		CognitoID:     cognitoID,
		Email:         email,
		FirstName:     strings.TrimSpace(firstName),
		LastName:      strings.TrimSpace(lastName),
		Providers:     identityProviders(attributes["identities"]),
		CorrelationID: correlationID,
	}, nil
}

func (h *Handler) isInternal(signupRequest *SignupRequest) bool {
	if h.Config.IsInternalEmail(signupRequest.Email) {
		return true
	}
	for _, provider := range signupRequest.Providers {
		if h.Config.IsInternalProvider(provider) {
			return true
		}
	}
	return false
}

// identityProviders lists the provider names in the identities attribute.
// Cognito sets it to a JSON array for users linked to an external provider.
func identityProviders(identities string) []string {
	if strings.TrimSpace(identities) == "" {
		return nil
	}
	var linked []struct {
		ProviderName string `json:"providerName"`
	}
	if err := json.Unmarshal([]byte(identities), &linked); err != nil {
		return nil
	}
	providers := make([]string, 0, len(linked))
	for _, identity := range linked {
		if identity.ProviderName != "" {
			providers = append(providers, identity.ProviderName)
		}
	}
	return providers
}

func main() {
	ctx := context.Background()
	isLocal, _ := strconv.ParseBool(os.Getenv("IS_LOCAL"))
	logger := util.NewLogger(isLocal)

	ssmRepository := &data.SSMDao{
		SSM:    clients.NewSSMClient(isLocal),
		Logger: logger,
	}
	ssmParams, err := ssmRepository.GetParameters(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "main",
			"error":     err.Error(),
		}).Fatal("Error while getting SSM params from parameter store")
	}

	cfg, err := config.Load(ssmParams, os.Getenv)
	if err == nil {
		err = cfg.RequireDatabase()
	}
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "main",
			"error":     err.Error(),
		}).Fatal("Invalid configuration")
	}

	sqlDB, err := clients.NewPostgresSQLClient(cfg.Database)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "main",
			"error":     err.Error(),
		}).Fatal("Error setting up PostgreSQL client")
	}

	h := &Handler{
		Users:  data.NewUserRepository(sqlDB, logger),
		Config: cfg,
		Logger: logger,
	}

	logger.WithField("operation", "main").Info("User Signup Lambda initialization completed successfully")
	lambda.Start(h.Handle)
}
