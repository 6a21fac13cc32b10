package helpers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
)

// Purpose tags what a token may be used for. A token is only accepted by the
// parser of its own purpose.
type Purpose string

const (
	PurposeSession       Purpose = "session"
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
)

var (
	ErrExpiredToken = fmt.Errorf("%w: token expired", apperror.ErrUnauthorized)
	ErrInvalidToken = fmt.Errorf("%w: invalid token", apperror.ErrUnauthorized)
)

// Claims is the payload of every token. Session tokens carry UserID and
// Email; verification and reset tokens carry Email only.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	UserID  int64   `json:"uid,omitempty"`
	Email   string  `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 tokens under a single secret.
type JWTManager struct {
	Secret     []byte
	SessionTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration
	now        func() time.Time
}

func NewJWTManager(secret string, sessionTTL, verifyTTL, resetTTL time.Duration) *JWTManager {
	return &JWTManager{
		Secret:     []byte(secret),
		SessionTTL: sessionTTL,
		VerifyTTL:  verifyTTL,
		ResetTTL:   resetTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	m.now = now
	return m
}

// Issue signs claims with exp = now + ttl and a fresh jti.
func (m *JWTManager) Issue(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(ttl)
	claims.ExpiresAt = jwt.NewNumericDate(exp)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ID = uuid.NewString()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// Verify checks signature, algorithm and expiry. It returns ErrExpiredToken
// for a well-signed but expired token and ErrInvalidToken for anything else.
func (m *JWTManager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// VerifyPurpose is Verify plus a check that the token was issued for purpose
// and carries the claims that purpose requires.
func (m *JWTManager) VerifyPurpose(tokenStr string, purpose Purpose) (*Claims, error) {
	claims, err := m.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: wrong purpose %q", ErrInvalidToken, claims.Purpose)
	}
	if claims.Email == "" || (purpose == PurposeSession && claims.UserID == 0) {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (m *JWTManager) IssueSession(userID int64, email string) (string, time.Time, error) {
	return m.Issue(Claims{
		Purpose:          PurposeSession,
		UserID:           userID,
		Email:            email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(userID, 10)},
	}, m.SessionTTL)
}

func (m *JWTManager) IssueEmailVerification(email string) (string, time.Time, error) {
	return m.Issue(Claims{
		Purpose:          PurposeEmailVerify,
		Email:            email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: email},
	}, m.VerifyTTL)
}

func (m *JWTManager) IssuePasswordReset(email string) (string, time.Time, error) {
	return m.Issue(Claims{
		Purpose:          PurposePasswordReset,
		Email:            email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: email},
	}, m.ResetTTL)
}

func (m *JWTManager) ParseSession(tokenStr string) (*Claims, error) {
	return m.VerifyPurpose(tokenStr, PurposeSession)
}

func (m *JWTManager) ParseEmailVerification(tokenStr string) (*Claims, error) {
	return m.VerifyPurpose(tokenStr, PurposeEmailVerify)
}

func (m *JWTManager) ParsePasswordReset(tokenStr string) (*Claims, error) {
	return m.VerifyPurpose(tokenStr, PurposePasswordReset)
}
