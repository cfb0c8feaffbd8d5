package middlewares

import (
	"ClinicDesk/utils"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(t *testing.T, roles ...string) (*gin.Engine, *utils.TokenMaker) {
	t.Helper()
	tokens, err := utils.NewTokenMaker("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", TokenAuthMiddleware(tokens), RoleAuthMiddleware(roles...), func(c *gin.Context) {
		facilityID, err := ExtractFacilityIDFromContext(c.Request.Context())
		require.NoError(t, err)
		userID, err := ExtractUserIDFromContext(c.Request.Context())
		require.NoError(t, err)
		RespondJSON(c, http.StatusOK, "", gin.H{"facility": facilityID, "user": userID})
	})
	return router, tokens
}

func TestTokenAuthMiddleware(t *testing.T) {
	router, tokens := newProtectedRouter(t, "FrontDeskStaff", "Admin")
	token, _, err := tokens.GenerateAccessToken("user-1", "FrontDeskStaff", "facility-1")
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"facility":"facility-1","user":"user-1"}}`, w.Body.String())
	})

	t.Run("query parameter", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?accessToken="+token, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRoleAuthMiddleware(t *testing.T) {
	router, tokens := newProtectedRouter(t, "Admin")
	token, _, err := tokens.GenerateAccessToken("user-1", "FrontDeskStaff", "facility-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
