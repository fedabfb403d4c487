package finalize

import (
	"context"
	"fmt"
	"strconv"

	"onboarding-orchestrator/internal/common/auth"
	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/onboarding/profile"
)

// AccountDirectory is the subset of the Keycloak admin client used here.
type AccountDirectory interface {
	FindUserByEmail(ctx context.Context, email string) (*auth.User, error)
	CreateUser(ctx context.Context, user *auth.User) (*auth.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// KeycloakFinalizer creates the marketplace login account.
type KeycloakFinalizer struct {
	directory   AccountDirectory
	redirectURL string
}

func NewKeycloakFinalizer(directory AccountDirectory, redirectURL string) *KeycloakFinalizer {
	return &KeycloakFinalizer{directory: directory, redirectURL: redirectURL}
}

func (k *KeycloakFinalizer) Finalize(ctx context.Context, req Request) (*Result, error) {
	p, err := profile.Decode(req.Role, req.FormData)
	if err != nil {
		return nil, errors.NewInvalidRequestError(err.Error())
	}
	common := p.Common()
	if common.Email == "" {
		return nil, &errors.StandardError{
			Code:    errors.ErrCodeValidationFailed,
			Message: "An email address is required to create your account",
		}
	}

	existing, err := k.directory.FindUserByEmail(ctx, common.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewAccountExistsError(
			"An account with this email already exists",
			fmt.Sprintf("email: %s", common.Email),
		)
	}

	first, last := p.PersonName()
	user, err := k.directory.CreateUser(ctx, &auth.User{
		Email:     common.Email,
		FirstName: first,
		LastName:  last,
		Enabled:   true,
		Attributes: map[string][]string{
			"onboarding_role":    {string(req.Role)},
			"onboarding_session": {req.SessionID},
			"onboarding_points":  {strconv.Itoa(req.Points)},
			"phone":              {common.Phone},
			"phone_verified":     {strconv.FormatBool(common.PhoneVerified)},
			"display_name":       {p.DisplayName()},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Result{AccountID: user.ID, RedirectURL: k.redirectURL}, nil
}

func (k *KeycloakFinalizer) Compensate(ctx context.Context, _ Request, res *Result) error {
	if res == nil || res.AccountID == "" {
		return nil
	}
	return k.directory.DeleteUser(ctx, res.AccountID)
}
