package repositories

import (
	"context"
	"errors"
	"fmt"

	"student-roster-backend/db/models"

	"gorm.io/gorm"
)

var ErrStudentNotFound = errors.New("student not found")

const bulkInsertBatchSize = 500

type StudentRepository interface {
	GetFilteredStudents(ctx context.Context, filters map[string]string, paginationEnabled bool, limit, offset int) ([]models.Student, int64, error)
	GetAllStudents(ctx context.Context) ([]models.Student, error)
	GetStudentByID(ctx context.Context, id uint) (*models.Student, error)
	CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error)
	UpdateStudent(ctx context.Context, student *models.Student) (*models.Student, error)
	DeleteStudent(ctx context.Context, id uint) error
	BulkCreateStudents(ctx context.Context, students []models.Student) (int, error)
	LogImport(ctx context.Context, entry *models.StudentImport) error
	GetImportLogs(ctx context.Context, limit, offset int) ([]models.StudentImport, int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{
		db: db,
	}
}

func (r *studentRepository) GetAllStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	return students, nil
}

func (r *studentRepository) GetStudentByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).First(&student, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error) {
	student.ID = 0
	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return student, nil
}

func (r *studentRepository) UpdateStudent(ctx context.Context, student *models.Student) (*models.Student, error) {
	result := r.db.WithContext(ctx).Model(&models.Student{ID: student.ID}).Updates(map[string]interface{}{
		"name":   student.Name,
		"dob":    student.DOB,
		"email":  student.Email,
		"mobile": student.Mobile,
	})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update student: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrStudentNotFound
	}
	return r.GetStudentByID(ctx, student.ID)
}

func (r *studentRepository) DeleteStudent(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Student{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete student: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// BulkCreateStudents inserts every student in one transaction. IDs are written
// back into the slice. On error nothing is persisted.
func (r *studentRepository) BulkCreateStudents(ctx context.Context, students []models.Student) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	for i := range students {
		students[i].ID = 0
	}

	if err := tx.CreateInBatches(&students, bulkInsertBatchSize).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("bulk insert failed: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit bulk insert: %w", err)
	}

	return len(students), nil
}

func (r *studentRepository) LogImport(ctx context.Context, entry *models.StudentImport) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

func (r *studentRepository) GetImportLogs(ctx context.Context, limit, offset int) ([]models.StudentImport, int64, error) {
	var logs []models.StudentImport
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.StudentImport{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("imported_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
