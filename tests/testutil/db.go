package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bidline/crm-api/internal/auth"
	"github.com/bidline/crm-api/internal/database"
	"github.com/bidline/crm-api/internal/domain"
)

// SetupTestDB creates an in-memory sqlite database with the full schema.
// Each call gets its own database, so tests stay isolated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open in-memory database")

	require.NoError(t, database.AutoMigrate(db), "failed to migrate test schema")

	return db
}

// Date builds a date-only UTC time, the format follow-up fields use.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// UserContext returns a context carrying an authenticated test user.
func UserContext(userID uuid.UUID, name string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID: userID,
		Email:  "test@bidline.io",
		Name:   name,
		Role:   domain.RoleSales,
	})
}

// CreateTestAccount creates an account with sensible defaults
func CreateTestAccount(t *testing.T, db *gorm.DB, name string) *domain.Account {
	t.Helper()

	account := &domain.Account{
		Name:        name,
		AccountType: domain.AccountTypeGeneralContractor,
		Industry:    "Construction",
		City:        "Denver",
		State:       "CO",
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

// CreateTestContact creates a contact attached to the given account
func CreateTestContact(t *testing.T, db *gorm.DB, accountID uuid.UUID, first, last, email string) *domain.Contact {
	t.Helper()

	contact := &domain.Contact{
		FirstName: first,
		LastName:  last,
		Email:     email,
		AccountID: &accountID,
	}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

// CreateTestOpportunity creates an opportunity in the given stage
func CreateTestOpportunity(t *testing.T, db *gorm.DB, accountID uuid.UUID, name string, stage domain.OpportunityStage) *domain.Opportunity {
	t.Helper()

	opp := &domain.Opportunity{
		Name:        name,
		AccountID:   accountID,
		Stage:       stage,
		Probability: domain.StageProbabilities[stage],
		Owner:       "Test Owner",
	}
	require.NoError(t, db.Create(opp).Error)
	return opp
}

// CreateTestUser creates an active user
func CreateTestUser(t *testing.T, db *gorm.DB, email, name string, role domain.UserRole) *domain.User {
	t.Helper()

	hash, err := auth.HashPassword("test-password-123")
	require.NoError(t, err)

	user := &domain.User{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
