package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"worktime/internal/apperr"
	"worktime/internal/auth"
	"worktime/internal/model"
	"worktime/internal/repository"
)

// SignUpInput is the data needed to register a user.
type SignUpInput struct {
	Name           string `validate:"required,max=100"`
	Email          string `validate:"required,email"`
	Mobile         int64  `validate:"required,gt=0"`
	Password       string `validate:"required,min=6,max=72"`
	TelegramChatID *int64
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile int64  `json:"mobile"`
}

// UserList is one page of users.
type UserList struct {
	TotalUsers int64         `json:"totalUsers"`
	Users      []UserSummary `json:"users"`
}

func toUserSummary(u model.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Mobile: u.Mobile}
}

// AuthService registers users and issues tokens.
type AuthService struct {
	users  *repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	log    *slog.Logger
}

func NewAuthService(users *repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*model.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Name:           input.Name,
		Email:          input.Email,
		Mobile:         input.Mobile,
		PasswordHash:   hash,
		IsActive:       true,
		TelegramChatID: input.TelegramChatID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, translate(ctx, s.log, "sign up", "", err)
	}

	s.log.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, translate(ctx, s.log, "login", "", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LoginResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}

// Authenticate resolves a bearer token to the user id it was issued for.
func (s *AuthService) Authenticate(token string) (string, error) {
	if token == "" {
		return "", apperr.ErrTokenMissing
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", apperr.ErrTokenInvalid
	}
	return claims.UserID, nil
}

func (s *AuthService) ListUsers(ctx context.Context, page, limit int) (*UserList, error) {
	page, limit = normalizePage(page, limit)
	users, total, err := s.users.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, translate(ctx, s.log, "list users", "", err)
	}

	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, toUserSummary(u))
	}
	return &UserList{TotalUsers: total, Users: out}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
