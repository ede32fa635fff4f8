package repositories

import (
	"strconv"
	"strings"

	"student-roster-backend/config"
	"student-roster-backend/db/models"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"
)

const StudentsIndex = "students"

var studentSearchFields = []string{"name", "email", "mobile"}

type studentDocument struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

func studentDocID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func newStudentDocument(s models.Student) studentDocument {
	return studentDocument{
		ID:     studentDocID(s.ID),
		Name:   s.Name,
		DOB:    s.DOB.Format("2006-01-02"),
		Email:  s.Email,
		Mobile: s.Mobile,
	}
}

// SearchStudents ORs exact, prefix and fuzzy matches over name, email and
// mobile; exact matches rank highest.
func (r *BleveRepository) SearchStudents(queryString string, size int) (*bleve.SearchResult, error) {
	term := strings.ToLower(strings.TrimSpace(queryString))
	booleanQuery := bleve.NewBooleanQuery()

	for _, field := range studentSearchFields {
		matchQuery := bleve.NewMatchQuery(queryString)
		matchQuery.SetField(field)
		matchQuery.SetBoost(3.0)
		booleanQuery.AddShould(matchQuery)

		prefixQuery := bleve.NewPrefixQuery(term)
		prefixQuery.SetField(field)
		prefixQuery.SetBoost(2.0)
		booleanQuery.AddShould(prefixQuery)

		fuzzyQuery := bleve.NewFuzzyQuery(term)
		fuzzyQuery.SetField(field)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetBoost(1.0)
		booleanQuery.AddShould(fuzzyQuery)
	}
	booleanQuery.SetMinShould(1)

	return r.indexer.SearchIndex(StudentsIndex, booleanQuery, size)
}

func (r *BleveRepository) GetStudentDocument(id string) (map[string]interface{}, error) {
	return r.indexer.GetDocument(StudentsIndex, id)
}

func (r *BleveRepository) IndexSingleStudent(student models.Student) error {
	id := studentDocID(student.ID)
	if err := r.indexer.IndexDocument(StudentsIndex, id, newStudentDocument(student)); err != nil {
		config.Logger.Error("Failed to index student into Bleve", zap.Error(err), zap.String("student_id", id))
		return err
	}
	return nil
}

// IndexExistingStudents indexes a slice of students in one batch.
func (r *BleveRepository) IndexExistingStudents(students []models.Student) error {
	if len(students) == 0 {
		return nil
	}

	docs := make(map[string]interface{}, len(students))
	for _, s := range students {
		docs[studentDocID(s.ID)] = newStudentDocument(s)
	}

	if err := r.indexer.BulkIndexDocuments(StudentsIndex, docs); err != nil {
		config.Logger.Error("Failed to bulk index students into Bleve", zap.Error(err), zap.Int("count", len(docs)))
		return err
	}
	return nil
}

func (r *BleveRepository) DeleteStudent(studentID uint) error {
	id := studentDocID(studentID)
	if err := r.indexer.DeleteDocument(StudentsIndex, id); err != nil {
		config.Logger.Error("Failed to delete student from Bleve", zap.Error(err), zap.String("student_id", id))
		return err
	}
	return nil
}

func (r *BleveRepository) StudentCount() (uint64, error) {
	return r.indexer.DocCount(StudentsIndex)
}
