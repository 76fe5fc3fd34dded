package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCognito struct {
	createInput *cognitoidentityprovider.AdminCreateUserInput
	createErr   error
	noSub       bool
	calls       []string
	disableErr  error
	signOutErr  error
	enableErr   error
}

func (m *mockCognito) AdminCreateUser(ctx context.Context, params *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error) {
	m.createInput = params
	m.calls = append(m.calls, "create")
	if m.createErr != nil {
		return nil, m.createErr
	}
	attrs := []types.AttributeType{{Name: aws.String("email"), Value: params.Username}}
	if !m.noSub {
		attrs = append(attrs, types.AttributeType{Name: aws.String("sub"), Value: aws.String("sub-123")})
	}
	return &cognitoidentityprovider.AdminCreateUserOutput{User: &types.UserType{Attributes: attrs}}, nil
}

func (m *mockCognito) AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error) {
	m.calls = append(m.calls, "delete:"+aws.ToString(params.Username))
	return &cognitoidentityprovider.AdminDeleteUserOutput{}, nil
}

func (m *mockCognito) AdminDisableUser(ctx context.Context, params *cognitoidentityprovider.AdminDisableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDisableUserOutput, error) {
	m.calls = append(m.calls, "disable:"+aws.ToString(params.Username))
	return &cognitoidentityprovider.AdminDisableUserOutput{}, m.disableErr
}

func (m *mockCognito) AdminEnableUser(ctx context.Context, params *cognitoidentityprovider.AdminEnableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminEnableUserOutput, error) {
	m.calls = append(m.calls, "enable:"+aws.ToString(params.Username))
	return &cognitoidentityprovider.AdminEnableUserOutput{}, m.enableErr
}

func (m *mockCognito) AdminUserGlobalSignOut(ctx context.Context, params *cognitoidentityprovider.AdminUserGlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminUserGlobalSignOutOutput, error) {
	m.calls = append(m.calls, "signout:"+aws.ToString(params.Username))
	return &cognitoidentityprovider.AdminUserGlobalSignOutOutput{}, m.signOutErr
}

func TestInviteUser(t *testing.T) {
	mock := &mockCognito{}
	dir := NewUserDirectory(mock, "pool-1")

	sub, err := dir.InviteUser(context.Background(), "sam@example.com", "Sam", "Ortiz")

	require.NoError(t, err)
	assert.Equal(t, "sub-123", sub)
	assert.Equal(t, "pool-1", aws.ToString(mock.createInput.UserPoolId))
	assert.Equal(t, "sam@example.com", aws.ToString(mock.createInput.Username))
	assert.Nil(t, mock.createInput.TemporaryPassword)
}

func TestInviteUser_Errors(t *testing.T) {
	_, err := NewUserDirectory(&mockCognito{createErr: &types.UsernameExistsException{Message: aws.String("exists")}}, "pool-1").
		InviteUser(context.Background(), "sam@example.com", "Sam", "Ortiz")
	assert.ErrorIs(t, err, ErrAccountExists)

	_, err = NewUserDirectory(&mockCognito{createErr: errors.New("throttled")}, "pool-1").
		InviteUser(context.Background(), "sam@example.com", "Sam", "Ortiz")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountExists)

	_, err = NewUserDirectory(&mockCognito{noSub: true}, "pool-1").
		InviteUser(context.Background(), "sam@example.com", "Sam", "Ortiz")
	assert.Error(t, err)
}

func TestDisableEnableUser(t *testing.T) {
	mock := &mockCognito{}
	dir := NewUserDirectory(mock, "pool-1")

	require.NoError(t, dir.DisableUser(context.Background(), "sub-1"))
	require.NoError(t, dir.EnableUser(context.Background(), "sub-1"))
	require.NoError(t, dir.DeleteUser(context.Background(), "sub-2"))

	assert.Equal(t, []string{"disable:sub-1", "signout:sub-1", "enable:sub-1", "delete:sub-2"}, mock.calls)
}

func TestDisableUser_StopsOnError(t *testing.T) {
	mock := &mockCognito{disableErr: errors.New("throttled")}

	err := NewUserDirectory(mock, "pool-1").DisableUser(context.Background(), "sub-1")

	assert.Error(t, err)
	assert.Equal(t, []string{"disable:sub-1"}, mock.calls)
}

func TestDisableUser_SignOutFailureReenables(t *testing.T) {
	mock := &mockCognito{signOutErr: errors.New("throttled")}

	err := NewUserDirectory(mock, "pool-1").DisableUser(context.Background(), "sub-1")

	assert.Error(t, err)
	assert.Equal(t, []string{"disable:sub-1", "signout:sub-1", "enable:sub-1"}, mock.calls)

	mock = &mockCognito{signOutErr: errors.New("throttled"), enableErr: errors.New("denied")}
	err = NewUserDirectory(mock, "pool-1").DisableUser(context.Background(), "sub-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "re-enable also failed")
}
