package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/deristok/deristok/internal/shared"
)

// RepositoryPort defines operator storage used by the service.
type RepositoryPort interface {
	GetOperatorByUsername(ctx context.Context, username string) (Operator, error)
	CountOperators(ctx context.Context) (int, error)
	InsertOperator(ctx context.Context, op Operator) (int64, error)
}

// Service verifies operator credentials and issues session tokens.
type Service struct {
	repo   RepositoryPort
	secret []byte
	ttl    time.Duration
}

// NewService builds Service.
func NewService(repo RepositoryPort, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl}
}

// Login checks the password and returns a signed token plus the operator.
func (s *Service) Login(ctx context.Context, username, password string) (string, Operator, error) {
	op, err := s.repo.GetOperatorByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", Operator{}, fmt.Errorf("invalid credentials: %w", shared.ErrUnauthorized)
		}
		return "", Operator{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", Operator{}, fmt.Errorf("invalid credentials: %w", shared.ErrUnauthorized)
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   op.Username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{RegisteredClaims: claims, Name: op.DisplayName})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Operator{}, err
	}
	return signed, op, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// VerifyToken validates a session token and returns the actor name.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", shared.ErrUnauthorized)
	}
	if claims.Name != "" {
		return claims.Name, nil
	}
	return claims.Subject, nil
}

// EnsureDefaultOperator seeds an initial operator when the table is empty.
func (s *Service) EnsureDefaultOperator(ctx context.Context, username, password, displayName string) error {
	count, err := s.repo.CountOperators(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.repo.InsertOperator(ctx, Operator{Username: username, PasswordHash: string(hash), DisplayName: displayName})
	return err
}
