package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"library_management/internal/model"
	"library_management/internal/repository"
	"library_management/internal/utils"
)

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	userRepo          repository.UserRepository
	jwtUtil           *utils.JWTUtil
	initialAdminEmail string
}

// NewAuthService creates a new AuthService. An account registered with
// initialAdminEmail becomes super-admin; every other account starts as user.
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, initialAdminEmail string) AuthService {
	return &authService{
		userRepo:          userRepo,
		jwtUtil:           jwtUtil,
		initialAdminEmail: strings.ToLower(strings.TrimSpace(initialAdminEmail)),
	}
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	userRole := model.RoleUser
	if s.initialAdminEmail != "" && email == s.initialAdminEmail {
		userRole = model.RoleSuperAdmin
		slog.InfoContext(ctx, "registering bootstrap super-admin via INITIAL_ADMIN_EMAIL", "email", email)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         userRole,
		StudentID:    optional(req.StudentID),
		Phone:        optional(req.Phone),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}

	return s.respond(user)
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.respond(user)
}

// Authenticate resolves a bearer token to the current account. Tokens for
// deleted accounts are rejected.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return nil, newError(ErrUnauthorized, "Invalid or expired token")
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load token subject: %w", err)
	}
	if user == nil {
		return nil, newError(ErrUnauthorized, "User no longer exists")
	}
	return user, nil
}

func (s *authService) respond(user *model.User) (*model.AuthResponse, error) {
	token, err := s.jwtUtil.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.AuthResponse{Token: token, User: user.Profile()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
