package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"dashboard/lib/models"

	"github.com/aws/aws-lambda-go/events"
)

// ErrInactiveUser is returned for tokens issued to a deactivated user
var ErrInactiveUser = errors.New("user is inactive")

// Claims represents the JWT claims extracted from the API Gateway authorizer context
type Claims struct {
	UserID      string                      `json:"user_id"`
	Email       string                      `json:"email"`
	CognitoID   string                      `json:"sub"`
	FirstName   string                      `json:"first_name,omitempty"`
	LastName    string                      `json:"last_name,omitempty"`
	IsInternal  bool                        `json:"is_internal"`
	IsActive    bool                        `json:"is_active"`
	Memberships []models.DivisionMembership `json:"memberships"`
}

// DivisionMemberships implements models.MembershipHolder
func (c *Claims) DivisionMemberships() []models.DivisionMembership {
	if c == nil {
		return nil
	}
	return c.Memberships
}

// tokenMembership is the compact membership form carried inside tokens
type tokenMembership struct {
	DivisionID string `json:"d"`
	Role       string `json:"r"`
}

// EncodeMemberships packs memberships into the base64 JSON form used by the memberships claim
func EncodeMemberships(memberships []models.DivisionMembership) (string, error) {
	compact := make([]tokenMembership, 0, len(memberships))
	for _, m := range memberships {
		compact = append(compact, tokenMembership{DivisionID: m.DivisionID, Role: string(m.Role)})
	}

	raw, err := json.Marshal(compact)
	if err != nil {
		return "", fmt.Errorf("error marshaling memberships: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeMemberships reverses EncodeMemberships. Unknown roles are an error.
func DecodeMemberships(encoded string) ([]models.DivisionMembership, error) {
	if encoded == "" {
		return []models.DivisionMembership{}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("memberships claim is not base64: %w", err)
	}

	var compact []tokenMembership
	if err := json.Unmarshal(raw, &compact); err != nil {
		return nil, fmt.Errorf("memberships claim is not valid JSON: %w", err)
	}

	memberships := make([]models.DivisionMembership, 0, len(compact))
	for _, m := range compact {
		if m.DivisionID == "" {
			return nil, errors.New("membership without division in claims")
		}
		role, err := models.ParseRole(m.Role)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, models.DivisionMembership{DivisionID: m.DivisionID, Role: role})
	}
	return memberships, nil
}

// ExtractClaimsFromRequest extracts and parses JWT claims from API Gateway request
func ExtractClaimsFromRequest(request events.APIGatewayProxyRequest) (*Claims, error) {
	var claimsMap map[string]interface{}
	var ok bool

	if authClaims, exists := request.RequestContext.Authorizer["claims"]; exists {
		claimsMap, ok = authClaims.(map[string]interface{})
	}

	// Some API Gateway configurations put the claims directly on the authorizer
	if !ok {
		claimsMap = request.RequestContext.Authorizer
		ok = (claimsMap != nil)
	}

	if !ok || claimsMap == nil {
		return nil, fmt.Errorf("claims not found in authorizer context")
	}

	userID, ok := claimsMap["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("user_id not found in claims")
	}

	email, ok := claimsMap["email"].(string)
	if !ok {
		return nil, fmt.Errorf("email not found or invalid in claims")
	}

	cognitoID, ok := claimsMap["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("sub not found or invalid in claims")
	}

	firstName, _ := claimsMap["first_name"].(string)
	lastName, _ := claimsMap["last_name"].(string)

	// Missing is_active means the token predates the flag and is treated as active
	isActive := true
	if value, exists := claimsMap["is_active"]; exists {
		isActive = parseBoolClaim(value)
	}
	if !isActive {
		return nil, ErrInactiveUser
	}

	encoded, _ := claimsMap["memberships"].(string)
	memberships, err := DecodeMemberships(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid memberships claim: %w", err)
	}

	return &Claims{
		UserID:      userID,
		Email:       email,
		CognitoID:   cognitoID,
		FirstName:   firstName,
		LastName:    lastName,
		IsInternal:  parseBoolClaim(claimsMap["is_internal"]),
		IsActive:    isActive,
		Memberships: memberships,
	}, nil
}

// Authorizer contexts deliver booleans either as JSON booleans or as strings
func parseBoolClaim(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// ToJSON converts claims to JSON string for logging
func (c *Claims) ToJSON() string {
	data, _ := json.Marshal(c)
	return string(data)
}
