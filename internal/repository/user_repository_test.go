package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskboard/taskboard-api/internal/models"
)

// newMockedRepo backs the repository with sqlmock so the generated SQL can
// be asserted without a live database.
func newMockedRepo(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewUserRepository(db), mock
}

func TestFindByEmail_QueryShape(t *testing.T) {
	repo, mock := newMockedRepo(t)

	rows := sqlmock.NewRows([]string{"id", "email", "password", "role"}).
		AddRow("user-1", "alice@example.com", "hashed", "user")

	// The email predicate must be parameterized, never interpolated.
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("alice@example.com", 1).
		WillReturnRows(rows)

	user, err := repo.FindByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, models.RoleUser, user.Role)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := newMockedRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("nobody@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "role"}))

	_, err := repo.FindByEmail("nobody@example.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func newSQLiteUserRepo(t *testing.T) (UserRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}, &models.TaskAttachment{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewUserRepository(db), db
}

func TestDelete_CascadesTasksAndClearsAssignments(t *testing.T) {
	repo, db := newSQLiteUserRepo(t)

	victim := &models.User{Email: "victim@example.com", PasswordHash: "x", Role: models.RoleUser}
	survivor := &models.User{Email: "survivor@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(victim).Error)
	require.NoError(t, db.Create(survivor).Error)

	// A task the victim created, with an attachment row
	created := &models.Task{Title: "victim's task", CreatedBy: victim.ID, Status: models.TaskStatusPending, Priority: models.TaskPriorityMedium}
	require.NoError(t, db.Create(created).Error)
	attachment := &models.TaskAttachment{
		TaskID: created.ID, Filename: "f.pdf", OriginalName: "f.pdf",
		MimeType: "application/pdf", Size: 10, FilePath: "/tmp/f.pdf",
	}
	require.NoError(t, db.Create(attachment).Error)

	// A survivor task assigned to the victim
	assigned := &models.Task{Title: "assigned to victim", CreatedBy: survivor.ID, AssignedTo: &victim.ID, Status: models.TaskStatusPending, Priority: models.TaskPriorityMedium}
	require.NoError(t, db.Create(assigned).Error)

	paths, err := repo.Delete(victim.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/f.pdf"}, paths)

	var count int64
	db.Model(&models.User{}).Where("id = ?", victim.ID).Count(&count)
	assert.Equal(t, int64(0), count, "user should be gone")

	db.Model(&models.Task{}).Where("created_by = ?", victim.ID).Count(&count)
	assert.Equal(t, int64(0), count, "created tasks should be gone")

	db.Model(&models.TaskAttachment{}).Count(&count)
	assert.Equal(t, int64(0), count, "attachment rows should be gone")

	var survivorTask models.Task
	require.NoError(t, db.First(&survivorTask, "id = ?", assigned.ID).Error)
	assert.Nil(t, survivorTask.AssignedTo, "assignment should be cleared, not the task deleted")
}

func TestList_NewestFirst(t *testing.T) {
	repo, db := newSQLiteUserRepo(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, db.Create(&models.User{Email: email, PasswordHash: "x", Role: models.RoleUser}).Error)
	}

	users, total, err := repo.List(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 2)
}
