package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"storefront-service/internal/logger"
	"storefront-service/internal/model"
	"storefront-service/internal/oauth"
	"storefront-service/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// GoogleProvider es el flujo OAuth de Google (ver internal/oauth).
type GoogleProvider interface {
	Enabled() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.GoogleUser, error)
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService registra usuarios, valida credenciales y emite/valida los JWT de sesión.
type AuthService struct {
	users  UserRepository
	secret []byte
	ttl    time.Duration
	google GoogleProvider
}

func NewAuthService(users UserRepository, secret string, ttl time.Duration, google GoogleProvider) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		google: google,
	}
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(b), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, "", invalid("name, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", invalid("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, "", invalid("password must be at least %d characters", minPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Provider: model.ProviderLocal,
		Role:     model.RoleUser,
	}
	if err := a.users.Insert(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := a.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	logger.FromCtx(ctx).Info("user registered", zap.String("user_id", u.ID.Hex()))
	return u, token, nil
}

func (a *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", invalid("please enter your email and password")
	}

	u, err := a.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	// Cuentas creadas con Google no tienen password local
	if u.Provider != model.ProviderLocal {
		return nil, "", ErrOAuthAccount
	}
	if !CheckPasswordHash(password, u.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := a.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (a *AuthService) IssueToken(u *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID.Hex(),
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken devuelve la identidad del token o ErrUnauthorized.
func (a *AuthService) ValidateToken(tokenStr string) (model.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return model.Identity{}, ErrUnauthorized
	}

	role := claims.Role
	if role == "" {
		role = model.RoleUser
	}
	return model.Identity{UserID: claims.UserID, Role: role}, nil
}

func (a *AuthService) GoogleLoginURL(state string) (string, error) {
	if a.google == nil || !a.google.Enabled() {
		return "", ErrOAuthDisabled
	}
	return a.google.AuthCodeURL(state), nil
}

// GoogleCallback crea el usuario si no existe, o pasa la cuenta existente a provider google.
func (a *AuthService) GoogleCallback(ctx context.Context, code string) (*model.User, string, error) {
	if a.google == nil || !a.google.Enabled() {
		return nil, "", ErrOAuthDisabled
	}
	if code == "" {
		return nil, "", invalid("missing authorization code")
	}

	gu, err := a.google.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	u, err := a.users.FindByEmail(ctx, gu.Email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u = &model.User{
			Name:          gu.Name,
			Email:         normalizeEmail(gu.Email),
			Image:         gu.Picture,
			EmailVerified: true,
			Provider:      model.ProviderGoogle,
			Role:          model.RoleUser,
		}
		if err := a.users.Insert(ctx, u); err != nil {
			return nil, "", err
		}
		logger.FromCtx(ctx).Info("google user created", zap.String("user_id", u.ID.Hex()))
	case err != nil:
		return nil, "", err
	case u.Provider != model.ProviderGoogle:
		u.Provider = model.ProviderGoogle
		u.EmailVerified = true
		if err := a.users.Replace(ctx, u); err != nil {
			return nil, "", err
		}
		logger.FromCtx(ctx).Info("user provider switched to google", zap.String("user_id", u.ID.Hex()))
	}

	token, err := a.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
