package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens issued by the identity service.
type JWTClaims struct {
	UserID   string     `json:"user_id"`
	Roles    []UserRole `json:"roles"`
	CampusID string     `json:"campus_id,omitempty"`
	Email    string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Actor projects the claims onto the caller identity used by services.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, Roles: c.Roles, CampusID: c.CampusID}
}
