package repositories

import (
	"context"
	"testing"
	"time"

	"student-roster-backend/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.StudentImport{}))
	return db
}

func student(name, email string, dob time.Time) models.Student {
	return models.Student{Name: name, Email: email, DOB: dob, Mobile: "0770000000"}
}

func TestBulkCreateStudentsAssignsIDs(t *testing.T) {
	repo := NewStudentRepository(setupTestDB(t))
	ctx := context.Background()
	dob := time.Date(2003, time.February, 1, 0, 0, 0, 0, time.UTC)

	students := []models.Student{
		student("Ada", "ada@example.com", dob),
		student("Bob", "bob@example.com", dob),
		student("Cy", "cy@example.com", dob),
	}
	students[0].ID = 99

	inserted, err := repo.BulkCreateStudents(ctx, students)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
	for _, s := range students {
		assert.NotZero(t, s.ID)
	}
	assert.NotEqual(t, uint(99), students[0].ID)

	all, err := repo.GetAllStudents(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Ada", all[0].Name)
	assert.Equal(t, "Cy", all[2].Name)
}

func TestBulkCreateStudentsEmpty(t *testing.T) {
	repo := NewStudentRepository(setupTestDB(t))

	inserted, err := repo.BulkCreateStudents(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestBulkCreateStudentsCanceledContext(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.BulkCreateStudents(ctx, []models.Student{student("Ada", "ada@example.com", time.Now())})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Student{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStudentCRUD(t *testing.T) {
	repo := NewStudentRepository(setupTestDB(t))
	ctx := context.Background()

	s := student("Ada", "ada@example.com", time.Date(2001, time.May, 4, 0, 0, 0, 0, time.UTC))
	created, err := repo.CreateStudent(ctx, &s)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := repo.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	got.Name = "Ada Lovelace"
	updated, err := repo.UpdateStudent(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)

	require.NoError(t, repo.DeleteStudent(ctx, created.ID))

	_, err = repo.GetStudentByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrStudentNotFound)
	assert.ErrorIs(t, repo.DeleteStudent(ctx, created.ID), ErrStudentNotFound)

	missing := models.Student{ID: 4242, Name: "Nobody"}
	_, err = repo.UpdateStudent(ctx, &missing)
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestGetFilteredStudents(t *testing.T) {
	repo := NewStudentRepository(setupTestDB(t))
	ctx := context.Background()
	dob := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.BulkCreateStudents(ctx, []models.Student{
		student("Ada Lovelace", "ada@example.com", dob),
		student("Alan Turing", "alan@example.org", dob),
		student("Grace Hopper", "grace@example.com", dob),
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		filters   map[string]string
		wantTotal int64
	}{
		{"no filters", map[string]string{}, 3},
		{"name case insensitive", map[string]string{"name": "ALAN"}, 1},
		{"email domain", map[string]string{"email": "example.com"}, 2},
		{"combined", map[string]string{"name": "a", "email": ".org"}, 1},
		{"no match", map[string]string{"name": "zed"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, total, err := repo.GetFilteredStudents(ctx, tt.filters, false, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Len(t, students, int(tt.wantTotal))
		})
	}

	page, total, err := repo.GetFilteredStudents(ctx, map[string]string{}, true, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "Grace Hopper", page[0].Name)
}

func TestImportLogs(t *testing.T) {
	repo := NewStudentRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	for i, accepted := range []int{3, 5} {
		require.NoError(t, repo.LogImport(ctx, &models.StudentImport{
			ID:            uuid.New(),
			FileName:      "roster.xlsx",
			Success:       true,
			AcceptedCount: accepted,
			Diagnostics:   datatypes.JSON(`[]`),
			ImportedBy:    "admin@example.com",
			ImportedAt:    now.Add(time.Duration(i) * time.Minute),
		}))
	}

	logs, total, err := repo.GetImportLogs(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
	assert.Equal(t, 5, logs[0].AcceptedCount)
}
