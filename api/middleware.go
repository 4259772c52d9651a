package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tryonfusion/studio/catalog"
	"github.com/tryonfusion/studio/studio"
	"github.com/tryonfusion/studio/utils"
)

type contextKey string

const userIDKey contextKey = "user_id"

var (
	appStudio       *studio.Studio
	garmentImporter *catalog.Importer
)

// Init wires the handlers to the studio core and the garment importer.
// Must be called before any route is served.
func Init(st *studio.Studio, importer *catalog.Importer) {
	appStudio = st
	garmentImporter = importer
}

// AuthMiddleware validates the Bearer token and stashes the user id in the
// request context.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.RespondError(w, nil, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := utils.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			utils.RespondError(w, nil, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.RespondError(w, nil, "Invalid token claims", http.StatusUnauthorized)
			return
		}
		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			utils.RespondError(w, nil, "Invalid token claims", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext returns the authenticated user id set by
// AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user id not found in context")
	}
	return userID, nil
}
