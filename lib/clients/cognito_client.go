package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// CognitoAPI is the subset of the Cognito admin API used for user administration
type CognitoAPI interface {
	AdminCreateUser(ctx context.Context, params *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error)
	AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error)
	AdminDisableUser(ctx context.Context, params *cognitoidentityprovider.AdminDisableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDisableUserOutput, error)
	AdminEnableUser(ctx context.Context, params *cognitoidentityprovider.AdminEnableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminEnableUserOutput, error)
	AdminUserGlobalSignOut(ctx context.Context, params *cognitoidentityprovider.AdminUserGlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminUserGlobalSignOutOutput, error)
}

// NewCognitoIdentityProviderClient creates the Cognito user pool admin client
func NewCognitoIdentityProviderClient(isLocal bool) *cognitoidentityprovider.Client {
	return cognitoidentityprovider.NewFromConfig(loadAWSConfig(isLocal))
}

// ErrAccountExists is returned when the user pool already has an account for the email
var ErrAccountExists = errors.New("account already exists")

// UserDirectory manages accounts in one Cognito user pool
type UserDirectory interface {
	InviteUser(ctx context.Context, email, firstName, lastName string) (string, error)
	DeleteUser(ctx context.Context, username string) error
	DisableUser(ctx context.Context, username string) error
	EnableUser(ctx context.Context, username string) error
}

// CognitoUserDirectory implements UserDirectory on top of the Cognito admin API
type CognitoUserDirectory struct {
	Client     CognitoAPI
	UserPoolID string
}

// NewUserDirectory creates a UserDirectory for the user pool
func NewUserDirectory(client CognitoAPI, userPoolID string) UserDirectory {
	return &CognitoUserDirectory{Client: client, UserPoolID: userPoolID}
}

// InviteUser creates the account and lets Cognito email a generated temporary password.
// It returns the Cognito sub of the new user.
func (d *CognitoUserDirectory) InviteUser(ctx context.Context, email, firstName, lastName string) (string, error) {
	result, err := d.Client.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:             aws.String(d.UserPoolID),
		Username:               aws.String(email),
		DesiredDeliveryMediums: []types.DeliveryMediumType{types.DeliveryMediumTypeEmail},
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("given_name"), Value: aws.String(firstName)},
			{Name: aws.String("family_name"), Value: aws.String(lastName)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
	})
	if err != nil {
		var exists *types.UsernameExistsException
		if errors.As(err, &exists) {
			return "", ErrAccountExists
		}
		return "", fmt.Errorf("failed to create user in Cognito: %w", err)
	}

	if result.User != nil {
		for _, attr := range result.User.Attributes {
			if aws.ToString(attr.Name) == "sub" {
				return aws.ToString(attr.Value), nil
			}
		}
	}
	return "", fmt.Errorf("failed to get Cognito user ID from response")
}

// DeleteUser removes the account. Used to undo an invite whose database write failed.
func (d *CognitoUserDirectory) DeleteUser(ctx context.Context, username string) error {
	_, err := d.Client.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(d.UserPoolID),
		Username:   aws.String(username),
	})
	return err
}

// DisableUser blocks sign-in and revokes refresh tokens. When the sign-out
// fails the account is enabled again so an error always means still enabled.
func (d *CognitoUserDirectory) DisableUser(ctx context.Context, username string) error {
	if _, err := d.Client.AdminDisableUser(ctx, &cognitoidentityprovider.AdminDisableUserInput{
		UserPoolId: aws.String(d.UserPoolID),
		Username:   aws.String(username),
	}); err != nil {
		return fmt.Errorf("failed to disable Cognito user: %w", err)
	}

	if _, err := d.Client.AdminUserGlobalSignOut(ctx, &cognitoidentityprovider.AdminUserGlobalSignOutInput{
		UserPoolId: aws.String(d.UserPoolID),
		Username:   aws.String(username),
	}); err != nil {
		if enableErr := d.EnableUser(ctx, username); enableErr != nil {
			return fmt.Errorf("failed to sign out Cognito user: %w (re-enable also failed: %v)", err, enableErr)
		}
		return fmt.Errorf("failed to sign out Cognito user: %w", err)
	}
	return nil
}

// EnableUser allows sign-in again
func (d *CognitoUserDirectory) EnableUser(ctx context.Context, username string) error {
	if _, err := d.Client.AdminEnableUser(ctx, &cognitoidentityprovider.AdminEnableUserInput{
		UserPoolId: aws.String(d.UserPoolID),
		Username:   aws.String(username),
	}); err != nil {
		return fmt.Errorf("failed to enable Cognito user: %w", err)
	}
	return nil
}
