package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/01moynul/sweetshop-golang/internal/auth"
	"github.com/01moynul/sweetshop-golang/internal/models"
	"github.com/01moynul/sweetshop-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setup(t *testing.T) (*gin.Engine, *store.MemoryStore, *auth.TokenManager, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	users := store.NewMemoryStore()
	tokens, err := auth.NewTokenManager("secret", time.Hour)
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/me", AuthMiddleware(tokens, users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(UserIDKey), "role": c.GetString(UserRoleKey)})
	})
	r.GET("/admin", AuthMiddleware(tokens, users), AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/admin-without-auth", AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, users, tokens, logs
}

func get(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r, users, tokens, _ := setup(t)
	require.NoError(t, users.CreateUser(context.Background(), models.User{
		ID: "u1", Username: "bob", Email: "bob@example.com", Role: models.RoleUser,
	}))
	token, err := tokens.GenerateToken("u1", models.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "Bearer nope").Code)

	w := get(r, "/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","role":"user"}`, w.Body.String())
}

func TestAdminMiddleware_UsesStoredRole(t *testing.T) {
	r, users, tokens, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, users.CreateUser(ctx, models.User{
		ID: "u1", Username: "bob", Email: "bob@example.com", Role: models.RoleUser,
	}))

	// The token claims admin but the record says user.
	token, err := tokens.GenerateToken("u1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", "Bearer "+token).Code)

	require.NoError(t, users.SetRole(ctx, "u1", models.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", "Bearer "+token).Code)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin-without-auth", "").Code)
}

func TestRequestLogger(t *testing.T) {
	r, _, _, logs := setup(t)

	get(r, "/me", "")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusUnauthorized), entries[0].ContextMap()["status"])
	assert.Equal(t, "/me", entries[0].ContextMap()["path"])
}
