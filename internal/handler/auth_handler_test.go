package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-analytics-api/internal/middleware"
	"github.com/noah-isme/course-analytics-api/internal/models"
	"github.com/noah-isme/course-analytics-api/internal/service"
)

type authRepoStub struct {
	tokens  map[string]*models.RefreshToken
	revoked []string
}

func (s *authRepoStub) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(_ context.Context, _ int64) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(_ context.Context, _ int64) error { return nil }

func (s *authRepoStub) SaveRefreshToken(_ context.Context, token *models.RefreshToken) error {
	if s.tokens == nil {
		s.tokens = make(map[string]*models.RefreshToken)
	}
	s.tokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := s.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (s *authRepoStub) RevokeRefreshToken(_ context.Context, id string) error {
	s.revoked = append(s.revoked, id)
	return nil
}

func newAuthTestHandler(repo *authRepoStub) *AuthHandler {
	svc := service.NewAuthService(repo, nil, zap.NewNop(), service.AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "course-analytics-api",
	})
	return NewAuthHandler(svc)
}

func TestAuthHandlerLogoutReturnsNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &authRepoStub{tokens: map[string]*models.RefreshToken{
		"session": {ID: "token-id", UserID: 9, Token: "session", ExpiresAt: time.Now().UTC().Add(time.Hour)},
	}}
	handler := newAuthTestHandler(repo)

	c, w := newGinContext(http.MethodPost, "/auth/logout", []byte(`{"refresh_token":"session"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 9, Role: models.RoleInstructor})

	handler.Logout(c)
	// Handlers are invoked directly (no engine), so flush the buffered
	// status for body-less responses; gin only writes it lazily.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.Bytes())
	require.Equal(t, []string{"token-id"}, repo.revoked)
}

func TestAuthHandlerLogoutRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthTestHandler(&authRepoStub{})

	c, w := newGinContext(http.MethodPost, "/auth/logout", []byte(`{"refresh_token":"session"}`))

	handler.Logout(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
