package models

import "time"

// UserRole enumerates platform account roles.
type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleRecruiter  UserRole = "RECRUITER"
	RoleUniversity UserRole = "UNIVERSITY"
	RoleAdmin      UserRole = "ADMIN"
)

// SubscriptionTier enumerates billing tiers that gate analytics features.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "FREE"
	TierPremium SubscriptionTier = "PREMIUM"
)

// NormalizeTier maps unknown tiers to the free tier.
func NormalizeTier(tier SubscriptionTier) SubscriptionTier {
	if tier == TierPremium {
		return TierPremium
	}
	return TierFree
}

// User is a platform account row.
type User struct {
	ID               string           `db:"id" json:"id"`
	Email            string           `db:"email" json:"email"`
	PasswordHash     string           `db:"password_hash" json:"-"`
	FullName         string           `db:"full_name" json:"fullName"`
	Role             UserRole         `db:"role" json:"role"`
	SubscriptionTier SubscriptionTier `db:"subscription_tier" json:"subscriptionTier"`
	University       *string          `db:"university" json:"university,omitempty"`
	IsActive         bool             `db:"is_active" json:"isActive"`
	LastLoginAt      *time.Time       `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}
