package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotApproved = errors.New("account pending approval")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Claims is the bearer-token payload: who the caller is, what they may do,
// and which shop they work.
type Claims struct {
	Role         string     `json:"role"`
	AssignedShop *uuid.UUID `json:"assigned_shop,omitempty"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo  UserRepository
	secret    []byte
	expiresIn time.Duration
}

func NewAuthService(userRepo UserRepository, secret string, expiresIn time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		secret:    []byte(secret),
		expiresIn: expiresIn,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResult, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleSeller
	}

	user, err := s.userRepo.Create(ctx, &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Password:     string(hash),
		Role:         role,
		AssignedShop: req.AssignedShop,
		IsApproved:   role == model.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}

	result := &model.AuthResult{User: user}
	if user.IsApproved {
		// unapproved accounts get no token until an admin signs off
		if result.Token, err = s.issueToken(user); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResult, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsApproved {
		return nil, ErrAccountNotApproved
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResult{Token: token, User: user}, nil
}

// ParseToken validates a bearer token and returns the caller identity it
// carries.
func (s *AuthService) ParseToken(tokenString string) (*model.Caller, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &model.Caller{
		ID:           id,
		Role:         model.Role(claims.Role),
		AssignedShop: claims.AssignedShop,
	}, nil
}

func (s *AuthService) issueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:         string(user.Role),
		AssignedShop: user.AssignedShop,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
