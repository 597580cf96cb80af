package auth

import (
	"time"

	"khata-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	UserID    uint               `json:"user_id"`
	ProfileID uint               `json:"profile_id"`
	Email     string             `json:"email"`
	UserType  models.ProfileType `json:"user_type"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, profile *models.UserProfile) (string, error) {
	claims := &JWTCustomClaims{
		UserID:    profile.UserID,
		ProfileID: profile.ID,
		Email:     profile.User.Email,
		UserType:  profile.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
