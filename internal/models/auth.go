package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries a fresh token pair plus the authenticated profile.
type LoginResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"`
	User         UserInfo `json:"user"`
}

// RefreshTokenRequest rotates a refresh token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshTokenResponse carries the rotated token pair.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// UserInfo is the public view of an account embedded in auth responses.
type UserInfo struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	FullName         string           `json:"fullName"`
	Role             UserRole         `json:"role"`
	SubscriptionTier SubscriptionTier `json:"subscriptionTier"`
	University       *string          `json:"university,omitempty"`
}

// JWTClaims is the access-token claim set. Subscription tier travels in the
// token so analytics gating does not need a user lookup per request.
type JWTClaims struct {
	UserID   string           `json:"uid"`
	Role     UserRole         `json:"role"`
	Tier     SubscriptionTier `json:"tier"`
	Email    string           `json:"email"`
	FullName string           `json:"name"`
	jwt.RegisteredClaims
}
