package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/repository"
	"github.com/cppla/blogapi/utils"
)

// SignupInput is the registration payload.
type SignupInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginInput is the authentication payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by Register and Authenticate.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Accounts registers and authenticates users.
type Accounts struct {
	users repository.UserRepository
	creds *Credentials
}

// NewAccounts creates the account service.
func NewAccounts(users repository.UserRepository, creds *Credentials) *Accounts {
	return &Accounts{users: users, creds: creds}
}

// Register creates an account and signs the new user in.
func (a *Accounts) Register(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.FirstName = cleanText(in.FirstName)
	in.LastName = cleanText(in.LastName)
	in.Email = normalizeEmail(in.Email)

	if err := checkFields(
		fieldCheck{"first_name", in.FirstName, ruleFirstName},
		fieldCheck{"last_name", in.LastName, ruleLastName},
		fieldCheck{"email", in.Email, ruleEmail},
		fieldCheck{"password", in.Password, rulePassword},
	); err != nil {
		return nil, err
	}

	_, err := a.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, newError(KindConflict, "User already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, internal("lookup user", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, &Error{Kind: KindValidation, Message: ValidationMessage, Err: err}
	}
	if err != nil {
		return nil, internal("hash password", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(KindConflict, "User already exists")
		}
		return nil, internal("create user", err)
	}

	token, err := a.creds.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Authenticate checks credentials and issues a fresh token.
func (a *Accounts) Authenticate(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if err := checkFields(
		fieldCheck{"email", email, "required"},
		fieldCheck{"password", in.Password, "required"},
	); err != nil {
		return nil, err
	}

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "User not found")
		}
		return nil, internal("lookup user", err)
	}
	if !utils.CheckPassword(user.PasswordHash, in.Password) {
		return nil, newError(KindInvalidCredential, "Invalid password!")
	}

	token, err := a.creds.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Get resolves a user by id.
func (a *Accounts) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "User not found")
		}
		return nil, internal("lookup user", err)
	}
	return user, nil
}
