package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/auth"
	"github.com/bidline/crm-api/internal/config"
	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/repository"
	"github.com/bidline/crm-api/internal/service"
	"github.com/bidline/crm-api/tests/testutil"
)

func newUserService(db *gorm.DB) *service.UserService {
	tokens := auth.NewTokenService(&config.AuthConfig{
		Secret:   "test-secret-do-not-use-in-production",
		TokenTTL: 3600,
		Issuer:   "bidline-crm-test",
	})
	return service.NewUserService(repository.NewUserRepository(db), tokens, zap.NewNop())
}

func TestLogin_Succeeds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Dana Ruiz", domain.RoleSales)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "dana@bidline.io",
		Password: "test-password-123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.ExpiresAt)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, domain.RoleSales, resp.User.Role)

	var stored domain.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLogin_WrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	testutil.CreateTestUser(t, db, "dana@bidline.io", "Dana Ruiz", domain.RoleSales)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "dana@bidline.io",
		Password: "not-the-password",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@bidline.io",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_InactiveUserRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Dana Ruiz", domain.RoleSales)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "dana@bidline.io",
		Password: "test-password-123",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestCreateUser_DuplicateEmailConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	testutil.CreateTestUser(t, db, "dana@bidline.io", "Dana Ruiz", domain.RoleSales)

	_, err := svc.Create(context.Background(), &domain.CreateUserRequest{
		Email:    "dana@bidline.io",
		Name:     "Other Dana",
		Role:     domain.RoleSales,
		Password: "another-password",
	})
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestCreateUser_UnknownRoleRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)

	_, err := svc.Create(context.Background(), &domain.CreateUserRequest{
		Email:    "new@bidline.io",
		Name:     "New Hire",
		Role:     "Janitor",
		Password: "some-password",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestIssuedToken_RoundTripsUserContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newUserService(db)
	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Dana Ruiz", domain.RoleAdmin)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "dana@bidline.io",
		Password: "test-password-123",
	})
	require.NoError(t, err)

	tokens := auth.NewTokenService(&config.AuthConfig{
		Secret:   "test-secret-do-not-use-in-production",
		TokenTTL: 3600,
		Issuer:   "bidline-crm-test",
	})
	userCtx, err := tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userCtx.UserID)
	assert.Equal(t, "dana@bidline.io", userCtx.Email)
	assert.Equal(t, "Dana Ruiz", userCtx.Name)
	assert.Equal(t, domain.RoleAdmin, userCtx.Role)
}
