package utils

import (
	"time"

	"student-roster-backend/config"

	"go.uber.org/zap"
)

// DateLocation is the application's timezone. Nil until InitializeDateLocation
// runs, in which case UTC is used.
var DateLocation *time.Location

// InitializeDateLocation sets up the application's timezone from DB_TIMEZONE.
func InitializeDateLocation() error {
	timezone := config.GetEnvOrDefault("DB_TIMEZONE", "UTC")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		config.Logger.Warn("Unknown DB_TIMEZONE, falling back to UTC",
			zap.String("timezone", timezone),
			zap.Error(err),
		)
		DateLocation = time.UTC
		return err
	}
	DateLocation = loc
	return nil
}

func location() *time.Location {
	if DateLocation == nil {
		return time.UTC
	}
	return DateLocation
}

// NormalizeDate converts a time.Time to a normalized date at midnight in the application timezone
func NormalizeDate(t time.Time) time.Time {
	loc := location()
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// Now returns the current time in the application timezone
func Now() time.Time {
	return time.Now().In(location())
}

// Today returns today's date normalized at midnight in the application timezone
func Today() time.Time {
	return NormalizeDate(time.Now())
}

// AreDatesEqual compares two dates, normalizing them first
func AreDatesEqual(date1, date2 time.Time) bool {
	return NormalizeDate(date1).Equal(NormalizeDate(date2))
}
