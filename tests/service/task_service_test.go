package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/repository"
	"github.com/bidline/crm-api/internal/service"
	"github.com/bidline/crm-api/tests/testutil"
)

func newTaskService(db *gorm.DB) *service.TaskService {
	return service.NewTaskService(repository.NewTaskRepository(db), zap.NewNop())
}

func TestCompleteTask_StampsWhoAndWhen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTaskService(db)
	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Dana Ruiz", domain.RoleSales)
	ctx := testutil.UserContext(user.ID, user.Name)

	due := todayUTC().AddDate(0, 0, 3)
	task, err := svc.Create(ctx, &domain.CreateTaskRequest{
		Title:        "Send revised schedule",
		DueDate:      &due,
		AssignedToID: &user.ID,
	})
	require.NoError(t, err)
	assert.False(t, task.Completed)

	done, err := svc.Complete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, "Dana Ruiz", done.CompletedBy)
	assert.NotEmpty(t, done.CompletedAt)

	var stored domain.Task
	require.NoError(t, db.First(&stored, "id = ?", task.ID).Error)
	firstStamp := stored.CompletedAt

	// completing again keeps the original stamp
	time.Sleep(10 * time.Millisecond)
	again, err := svc.Complete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, again.Completed)

	require.NoError(t, db.First(&stored, "id = ?", task.ID).Error)
	assert.Equal(t, firstStamp.UTC(), stored.CompletedAt.UTC())
}

func TestListOpenByAssignee_SkipsCompleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTaskService(db)
	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Dana Ruiz", domain.RoleSales)
	ctx := testutil.UserContext(user.ID, user.Name)

	open, err := svc.Create(ctx, &domain.CreateTaskRequest{Title: "Call the PM", AssignedToID: &user.ID})
	require.NoError(t, err)
	done, err := svc.Create(ctx, &domain.CreateTaskRequest{Title: "File the permit", AssignedToID: &user.ID})
	require.NoError(t, err)
	_, err = svc.Complete(ctx, done.ID)
	require.NoError(t, err)

	tasks, err := svc.ListOpenByAssignee(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, open.ID, tasks[0].ID)
}

func TestTaskDelete_ThenGetNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTaskService(db)
	ctx := context.Background()

	task, err := svc.Create(ctx, &domain.CreateTaskRequest{Title: "Call the PM"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, task.ID))
	_, err = svc.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
