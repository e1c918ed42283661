package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphard-edu/exam-registration-api/internal/models"
	appErrors "github.com/alphard-edu/exam-registration-api/pkg/errors"
)

type mockAdminRepo struct {
	admins map[string]*models.Admin
	tokens map[string]*models.RefreshToken
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{
		admins: make(map[string]*models.Admin),
		tokens: make(map[string]*models.RefreshToken),
	}
}

func (m *mockAdminRepo) FindByEmail(_ context.Context, email string) (*models.Admin, error) {
	admin, ok := m.admins[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return admin, nil
}

func (m *mockAdminRepo) FindByID(_ context.Context, id int64) (*models.Admin, error) {
	for _, admin := range m.admins {
		if admin.ID == id {
			return admin, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = token.Token
	}
	m.tokens[token.Token] = token
	return nil
}

func (m *mockAdminRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAdminRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, rt := range m.tokens {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAdminRepo) RevokeAdminRefreshTokens(_ context.Context, adminID int64) error {
	now := time.Now().UTC()
	for _, rt := range m.tokens {
		if rt.AdminID == adminID && !rt.Revoked {
			rt.Revoked = true
			rt.RevokedAt = &now
		}
	}
	return nil
}

func seedAdmin(t *testing.T, repo *mockAdminRepo, email, password string) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.Admin{ID: 1, Email: email, PasswordHash: string(hash), CreatedAt: time.Now().UTC()}
	repo.admins[email] = admin
	return admin
}

func newAuthService(repo *mockAdminRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "exam-registration-api",
	})
}

func TestLoginSuccess(t *testing.T) {
	repo := newMockAdminRepo()
	seedAdmin(t, repo, "admin@alphard.local", "ChangeMe123!")
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@alphard.local", Password: "ChangeMe123!"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "admin@alphard.local", resp.Email)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Len(t, repo.tokens, 1)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockAdminRepo()
	seedAdmin(t, repo, "admin@alphard.local", "ChangeMe123!")
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@alphard.local", Password: "wrong"})
	assert.Equal(t, appErrors.ErrInvalidCredentials, err)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := newMockAdminRepo()
	seedAdmin(t, repo, "admin@alphard.local", "ChangeMe123!")
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "other@example.com", Password: "ChangeMe123!"})
	assert.Equal(t, appErrors.ErrInvalidCredentials, err, "unknown email and wrong password must be indistinguishable")
}

func TestLoginInvalidPayload(t *testing.T) {
	svc := newAuthService(newMockAdminRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := newMockAdminRepo()
	seedAdmin(t, repo, "admin@alphard.local", "ChangeMe123!")
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@alphard.local", Password: "ChangeMe123!"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.AdminID)
	assert.Equal(t, "admin@alphard.local", claims.Email)
	assert.Equal(t, "exam-registration-api", claims.Issuer)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	repo := newMockAdminRepo()
	seedAdmin(t, repo, "admin@alphard.local", "ChangeMe123!")
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@alphard.local", Password: "ChangeMe123!"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "different", AccessTokenExpiry: time.Minute, RefreshTokenExpiry: time.Hour})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := newAuthService(newMockAdminRepo())

	_, err := svc.ValidateToken("not.a.jwt")
	require.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newMockAdminRepo()
	seedAdmin(t, repo, "admin@alphard.local", "ChangeMe123!")
	svc := newAuthService(repo)

	first, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@alphard.local", Password: "ChangeMe123!"})
	require.NoError(t, err)

	second, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.True(t, repo.tokens[first.RefreshToken].Revoked, "used refresh token must be revoked")

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	assert.Equal(t, appErrors.ErrUnauthorized, err, "revoked token must not refresh again")
}

func TestRefreshExpiredToken(t *testing.T) {
	repo := newMockAdminRepo()
	admin := seedAdmin(t, repo, "admin@alphard.local", "ChangeMe123!")
	svc := newAuthService(repo)

	repo.tokens["expired"] = &models.RefreshToken{
		ID:        "expired",
		AdminID:   admin.ID,
		Token:     "expired",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}

	_, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: "expired"})
	assert.Equal(t, appErrors.ErrUnauthorized, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc := newAuthService(newMockAdminRepo())

	_, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: "missing"})
	assert.Equal(t, appErrors.ErrUnauthorized, err)
}

func TestLogout(t *testing.T) {
	repo := newMockAdminRepo()
	seedAdmin(t, repo, "admin@alphard.local", "ChangeMe123!")
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@alphard.local", Password: "ChangeMe123!"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), resp.RefreshToken, 1))
	assert.True(t, repo.tokens[resp.RefreshToken].Revoked)
}

func TestLogoutWrongAdmin(t *testing.T) {
	repo := newMockAdminRepo()
	seedAdmin(t, repo, "admin@alphard.local", "ChangeMe123!")
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@alphard.local", Password: "ChangeMe123!"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), resp.RefreshToken, 99)
	assert.Equal(t, appErrors.ErrForbidden, err)
	assert.False(t, repo.tokens[resp.RefreshToken].Revoked)
}
