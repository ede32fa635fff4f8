package services

import (
	"net/mail"
	"strings"
	"time"

	"student-roster-backend/db/models"
)

const maxStudentAgeYears = 100

// ValidateStudent returns "" when s may be stored, otherwise the first
// failing reason.
func ValidateStudent(s *models.Student, now time.Time) string {
	if strings.TrimSpace(s.Name) == "" {
		return "name is required"
	}

	email := strings.TrimSpace(s.Email)
	if email == "" {
		return "email is required"
	}
	if !isSingleAddress(email) {
		return "email is not a valid address"
	}

	if s.DOB.IsZero() {
		return "date of birth is required"
	}
	if s.DOB.After(now) {
		return "date of birth cannot be in the future"
	}
	if dateOf(s.DOB, now.Location()).Before(dateOf(now, now.Location()).AddDate(-maxStudentAgeYears, 0, 0)) {
		return "date of birth cannot be more than 100 years ago"
	}

	return ""
}

// dateOf drops the time of day, keeping the calendar date of t.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// isSingleAddress accepts a bare address only: no display name, no list.
func isSingleAddress(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == email
}
