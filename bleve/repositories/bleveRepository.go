package repositories

import (
	"context"

	bleveindex "student-roster-backend/bleve/services"
	"student-roster-backend/db/models"

	"github.com/blevesearch/bleve/v2"
)

type BleveRepository struct {
	indexer bleveindex.IndexingServiceInterface
}

type BleveRepositoryInterface interface {
	IndexSingleStudent(student models.Student) error
	IndexExistingStudents(students []models.Student) error
	DeleteStudent(studentID uint) error
	SearchStudents(queryString string, size int) (*bleve.SearchResult, error)
	StudentCount() (uint64, error)
}

// Constructor returning both the struct and the interface
func NewBleveRepository(indexer bleveindex.IndexingServiceInterface) (*BleveRepository, BleveRepositoryInterface) {
	repo := &BleveRepository{indexer: indexer}
	return repo, repo
}

// StudentLoader is the slice of the student store needed to rebuild the index.
type StudentLoader interface {
	GetAllStudents(ctx context.Context) ([]models.Student, error)
}

// ReindexStudentsIfEmpty fills the student index from the database when the
// index holds no documents (first start or a wiped volume).
func ReindexStudentsIfEmpty(ctx context.Context, repo BleveRepositoryInterface, loader StudentLoader) (int, error) {
	count, err := repo.StudentCount()
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	students, err := loader.GetAllStudents(ctx)
	if err != nil {
		return 0, err
	}
	if err := repo.IndexExistingStudents(students); err != nil {
		return 0, err
	}
	return len(students), nil
}
