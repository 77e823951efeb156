package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	"github.com/noah-isme/campus-sis-api/pkg/config"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
)

// AuthService verifies access tokens minted by the identity service.
type AuthService struct {
	secret []byte
	issuer string
	logger *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{secret: []byte(cfg.Secret), issuer: cfg.Issuer, logger: logger}
}

// ValidateToken parses and validates an access token returning the claims.
// Tokens naming a role outside the known set are rejected.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	for _, role := range claims.Roles {
		if !role.Valid() {
			s.logger.Warn("token carries unknown role", zap.String("user_id", claims.UserID), zap.String("role", string(role)))
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
		}
	}
	return claims, nil
}
