package repositories

import (
	"context"
	"strings"

	"student-roster-backend/db/models"

	"gorm.io/gorm"
)

// studentsQueryBuilder builds queries for student filtering
type studentsQueryBuilder struct {
	query   *gorm.DB
	filters map[string]string
}

func newStudentsQueryBuilder(db *gorm.DB, filters map[string]string) *studentsQueryBuilder {
	return &studentsQueryBuilder{
		query:   db.Model(&models.Student{}),
		filters: filters,
	}
}

func likePattern(value string) string {
	return "%" + strings.ToLower(strings.TrimSpace(value)) + "%"
}

func (sqb *studentsQueryBuilder) applyBasicStudentFilters() *studentsQueryBuilder {
	if name := sqb.filters["name"]; name != "" {
		sqb.query = sqb.query.Where("LOWER(name) LIKE ?", likePattern(name))
	}
	if email := sqb.filters["email"]; email != "" {
		sqb.query = sqb.query.Where("LOWER(email) LIKE ?", likePattern(email))
	}
	if mobile := sqb.filters["mobile"]; mobile != "" {
		sqb.query = sqb.query.Where("mobile LIKE ?", "%"+strings.TrimSpace(mobile)+"%")
	}
	return sqb
}

func (sqb *studentsQueryBuilder) applyDOBRangeFilter() *studentsQueryBuilder {
	from := sqb.filters["dob_from"]
	to := sqb.filters["dob_to"]

	if from != "" && from != "null" {
		sqb.query = sqb.query.Where("dob >= ?", from)
	}
	if to != "" && to != "null" {
		sqb.query = sqb.query.Where("dob <= ?", to)
	}
	return sqb
}

func (sqb *studentsQueryBuilder) applyOrder() *studentsQueryBuilder {
	sqb.query = sqb.query.Order("id ASC")
	return sqb
}

func (sqb *studentsQueryBuilder) Limit(limit int) *studentsQueryBuilder {
	sqb.query = sqb.query.Limit(limit)
	return sqb
}

func (sqb *studentsQueryBuilder) Offset(offset int) *studentsQueryBuilder {
	sqb.query = sqb.query.Offset(offset)
	return sqb
}

// GetFilteredStudents returns filtered students with pagination
func (r *studentRepository) GetFilteredStudents(ctx context.Context, filters map[string]string, paginationEnabled bool, limit, offset int) ([]models.Student, int64, error) {
	db := r.db.WithContext(ctx)
	sqb := newStudentsQueryBuilder(db, filters).applyBasicStudentFilters().applyDOBRangeFilter().applyOrder()
	countQuery := newStudentsQueryBuilder(db, filters).applyBasicStudentFilters().applyDOBRangeFilter()

	if paginationEnabled {
		sqb = sqb.Limit(limit).Offset(offset)
	}

	var students []models.Student
	if err := sqb.query.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	var total int64
	if err := countQuery.query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}
