package token

import (
	"errors"
	"time"

	dErrors "caregate/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims for our access tokens. Subject carries the
// user ID; everything else is registered-claim plumbing.
type Claims struct {
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation against a shared HMAC secret.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Generate signs an access token for the given subject.
func (s *Service) Generate(subject uuid.UUID, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// Validate parses and verifies a token string. Expiry and signature failures
// both map to invalid_credential; the raw token never appears in the error.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeInvalidCredential, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid token claims")
	}

	return claims, nil
}

// SubjectID extracts and parses the subject claim from a token string.
func (s *Service) SubjectID(tokenString string) (uuid.UUID, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid token subject")
	}
	return subject, nil
}
