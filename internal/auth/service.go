package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicbook/clinic-booking/internal/patient"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims carried by a session token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	patients patient.Repository
	secret   []byte
	tokenTTL time.Duration
	cost     int
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(patients patient.Repository, secret string, tokenTTL time.Duration, bcryptCost int, logger *zap.Logger) *Service {
	return &Service{
		patients: patients,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		cost:     bcryptCost,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a patient account and returns it with a session token.
// New accounts always get the patient role; admins are seeded out of band.
func (s *Service) Register(ctx context.Context, name, email, password string) (*patient.Patient, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	p, err := s.patients.Create(ctx, &patient.Patient{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         patient.RolePatient,
	})
	if err != nil {
		if errors.Is(err, patient.ErrEmailTaken) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("create patient: %w", err)
	}

	token, err := s.IssueToken(p)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("patient registered", zap.String("patient_id", p.ID.String()))

	return p, token, nil
}

// Login verifies credentials and returns the patient with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*patient.Patient, string, error) {
	p, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load patient: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := s.patients.TouchLastLogin(ctx, p.ID); err != nil {
		s.logger.Warn("failed to record last login", zap.String("patient_id", p.ID.String()), zap.Error(err))
	}

	token, err := s.IssueToken(p)
	if err != nil {
		return nil, "", err
	}

	return p, token, nil
}

// IssueToken signs an HMAC session token carrying the patient id and role.
func (s *Service) IssueToken(p *patient.Patient) (string, error) {
	now := s.now()
	claims := Claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns the principal it names.
func (s *Service) ParseToken(tokenString string) (Principal, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}

	return Principal{ID: id, Role: patient.Role(claims.Role)}, nil
}
