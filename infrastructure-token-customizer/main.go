// Package main implements the AWS Cognito Pre-Token Generation V2.0 Lambda trigger.
//
// It enriches ID and access tokens with the dashboard profile of the user:
// internal id, names, the internal/active flags, the division memberships and
// the highest role. The API authorizer passes these claims through to every
// Lambda, where auth.ExtractClaimsFromRequest decodes them again.
//
// Memberships are carried as base64 encoded compact JSON to keep the token small:
//
//	[{"d":"wood","r":"manager"},{"d":"group","r":"client"}]
//
// Error Handling Strategy:
//   - Database errors and unknown users are logged and the event is returned
//     unchanged, so sign-in never fails because the database is unavailable.
//     Tokens without a user_id claim are rejected by the API.
//   - Deactivated users still receive tokens with is_active=false and no
//     memberships; the API rejects them.
package main

import (
	"context"
	"errors"
	"os"
	"strconv"

	"dashboard/lib/auth"
	"dashboard/lib/clients"
	"dashboard/lib/config"
	"dashboard/lib/data"
	"dashboard/lib/models"
	"dashboard/lib/permissions"
	"dashboard/lib/util"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// ProfileLoader loads the token-facing profile of a user by Cognito sub
type ProfileLoader interface {
	GetUserProfile(ctx context.Context, cognitoID string) (*models.UserProfile, error)
}

// Handler struct contains all dependencies for the Lambda function
type Handler struct {
	Profiles  ProfileLoader
	Evaluator *permissions.Evaluator
	Logger    *logrus.Logger
}

// Handle processes the Cognito Pre Token Generation V2.0 trigger event
func (h *Handler) Handle(ctx context.Context, event events.CognitoEventUserPoolsPreTokenGenV2_0) (events.CognitoEventUserPoolsPreTokenGenV2_0, error) {
	h.Logger.WithFields(logrus.Fields{
		"trigger_source": event.TriggerSource,
		"user_pool_id":   event.UserPoolID,
		"username":       event.UserName,
		"client_id":      event.CallerContext.ClientID,
		"version":        event.Version,
		"operation":      "Handle",
	}).Debug("Processing Cognito Pre Token Generation V2.0 event")

	if !isValidTriggerSourceV2(event.TriggerSource) {
		h.Logger.WithFields(logrus.Fields{
			"trigger_source": event.TriggerSource,
			"operation":      "Handle",
		}).Warn("Invalid trigger source for V2.0, returning event unchanged")
		return event, nil
	}

	// event.UserName holds the Cognito sub for native users and
	// "<provider>_<id>" for federated ones; the sub attribute is always the UUID
	cognitoID := event.Request.UserAttributes["sub"]
	if cognitoID == "" {
		cognitoID = event.UserName
	}
	if cognitoID == "" {
		h.Logger.WithField("operation", "Handle").Error("Username (cognito_id) is empty in event")
		return event, errors.New("username cannot be empty")
	}

	profile, err := h.Profiles.GetUserProfile(ctx, cognitoID)
	if err != nil {
		h.Logger.WithFields(logrus.Fields{
			"cognito_id": cognitoID,
			"operation":  "Handle",
			"error":      err.Error(),
		}).Error("Failed to fetch user profile from database, proceeding without custom claims")
		return event, nil
	}

	claims, groups, err := h.buildClaims(profile)
	if err != nil {
		h.Logger.WithFields(logrus.Fields{
			"cognito_id": cognitoID,
			"user_id":    profile.UserID,
			"operation":  "Handle",
			"error":      err.Error(),
		}).Error("Failed to build custom claims, proceeding without custom claims")
		return event, nil
	}

	event.Response.ClaimsAndScopeOverrideDetails = events.ClaimsAndScopeOverrideDetailsV2_0{
		IDTokenGeneration: events.IDTokenGenerationV2_0{
			ClaimsToAddOrOverride: claims,
			ClaimsToSuppress:      []string{},
		},
		AccessTokenGeneration: events.AccessTokenGenerationV2_0{
			ClaimsToAddOrOverride: claims,
			ClaimsToSuppress:      []string{},
			ScopesToAdd:           []string{},
			ScopesToSuppress:      []string{},
		},
		GroupOverrideDetails: events.GroupConfigurationV2_0{
			GroupsToOverride:   groups,
			IAMRolesToOverride: []string{},
		},
	}

	if h.Logger.IsLevelEnabled(logrus.DebugLevel) {
		h.Logger.WithFields(logrus.Fields{
			"user_id":     profile.UserID,
			"is_active":   profile.IsActive,
			"memberships": len(profile.Memberships),
			"groups":      groups,
			"operation":   "Handle",
		}).Debug("Successfully added custom claims to token")
	}

	return event, nil
}

// buildClaims turns the profile into token claims and the Cognito groups to set.
// Inactive users keep their identity claims but carry no memberships.
func (h *Handler) buildClaims(profile *models.UserProfile) (map[string]interface{}, []string, error) {
	memberships := profile.Memberships
	if !profile.IsActive {
		memberships = nil
	}

	encoded, err := auth.EncodeMemberships(memberships)
	if err != nil {
		return nil, nil, err
	}

	claims := map[string]interface{}{
		"user_id":     profile.UserID,
		"cognito_id":  profile.CognitoID,
		"email":       profile.Email,
		"first_name":  profile.FirstName,
		"last_name":   profile.LastName,
		"full_name":   profile.GetFullName(),
		"is_internal": strconv.FormatBool(profile.IsInternal),
		"is_active":   strconv.FormatBool(profile.IsActive),
		"memberships": encoded,
	}

	groups := []string{}
	if profile.IsActive {
		if role, ok := h.Evaluator.GetUserHighestRole(profile); ok {
			claims["highest_role"] = string(role)
		}
		groups = profile.GetAllRoles()
	}
	return claims, groups, nil
}

// isValidTriggerSourceV2 reports whether the trigger uses the V2.0 event format.
// Processing V1.0 triggers with a V2.0 response can break sign-in.
func isValidTriggerSourceV2(triggerSource string) bool {
	validSources := []string{
		"TokenGeneration_HostedAuth",
		"TokenGeneration_Authentication",
		"TokenGeneration_NewPasswordChallenge",
		"TokenGeneration_AuthenticateDevice",
		"TokenGeneration_RefreshTokens",
	}

	for _, valid := range validSources {
		if triggerSource == valid {
			return true
		}
	}
	return false
}

// main initializes dependencies once per cold start and starts the Lambda runtime
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
		Profiles:  data.NewUserRepository(sqlDB, logger),
		Evaluator: permissions.NewEvaluator(),
		Logger:    logger,
	}

	logger.WithField("operation", "main").Info("Token Customizer Lambda initialization completed successfully")
	lambda.Start(h.Handle)
}
