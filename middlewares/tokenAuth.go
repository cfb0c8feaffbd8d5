package middlewares

import (
	"ClinicDesk/utils"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// contextKey keeps identity values from colliding with other context keys.
type contextKey string

const (
	userIDKey     contextKey = "userID"
	userRoleKey   contextKey = "userRole"
	facilityIDKey contextKey = "facilityID"
)

// TokenAuthMiddleware validates the access token and adds the user, role
// and facility to the request context.
func TokenAuthMiddleware(tokens *utils.TokenMaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			HttpError(c, http.StatusUnauthorized, "Missing access token", nil)
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			HttpError(c, http.StatusUnauthorized, "Invalid token", nil)
			return
		}
		if claims.FacilityID == "" {
			HttpError(c, http.StatusUnauthorized, "Token is not bound to a facility", nil)
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), claims.UserID, claims.Role, claims.FacilityID))

		c.Next()
	}
}

// RoleAuthMiddleware restricts access to users holding one of roles.
func RoleAuthMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := ExtractUserRoleFromContext(c.Request.Context())
		if err != nil {
			HttpError(c, http.StatusUnauthorized, "User role not found in context", nil)
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		HttpError(c, http.StatusForbidden, "Forbidden: insufficient privileges", nil)
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// accessToken query parameter.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		return token, found && token != ""
	}
	token := c.Query("accessToken")
	return token, token != ""
}

// ExtractUserIDFromContext retrieves the userID from the context.
func ExtractUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return "", errors.New("user ID not found in context")
	}
	return userID, nil
}

// ExtractUserRoleFromContext retrieves the user role from the context.
func ExtractUserRoleFromContext(ctx context.Context) (string, error) {
	userRole, ok := ctx.Value(userRoleKey).(string)
	if !ok {
		return "", errors.New("user role not found in context")
	}
	return userRole, nil
}

// ExtractFacilityIDFromContext retrieves the caller's facility from the context.
func ExtractFacilityIDFromContext(ctx context.Context) (string, error) {
	facilityID, ok := ctx.Value(facilityIDKey).(string)
	if !ok || facilityID == "" {
		return "", errors.New("facility ID not found in context")
	}
	return facilityID, nil
}

// WithIdentity returns ctx carrying the given user, role and facility.
func WithIdentity(ctx context.Context, userID, role, facilityID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, userRoleKey, role)
	return context.WithValue(ctx, facilityIDKey, facilityID)
}
