package auth

import (
	"fmt"
	"strings"

	"khata-backend/internal/config"
	"khata-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey    = "user_id"
	CtxProfileIDKey = "profile_id"
	CtxUserTypeKey  = "user_type"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Token claims could not be parsed")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxProfileIDKey, claims.ProfileID)
		c.Locals(CtxUserTypeKey, claims.UserType)

		return c.Next()
	}
}

func RequireUserType(allowed ...models.ProfileType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		typeVal := c.Locals(CtxUserTypeKey)
		userType, ok := typeVal.(models.ProfileType)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "User type could not be resolved")
		}

		for _, t := range allowed {
			if t == userType {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "You are not allowed to perform this action")
	}
}
