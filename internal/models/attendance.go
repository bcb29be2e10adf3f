package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "P"
	AttendanceStatusAbsent  AttendanceStatus = "A"
	AttendanceStatusLate    AttendanceStatus = "L"
	AttendanceStatusExcused AttendanceStatus = "E"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one student's status in a class on a calendar date.
// The (class, student, date) triple is unique; saves upsert.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	ClassID   string           `db:"class_id" json:"class_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRegisterRow is one persisted record joined with student info,
// used by range reports and exports.
type AttendanceRegisterRow struct {
	StudentID     string           `db:"student_id" json:"student_id"`
	StudentNumber string           `db:"student_number" json:"student_number"`
	StudentName   string           `db:"student_name" json:"student_name"`
	Date          time.Time        `db:"date" json:"date"`
	Status        AttendanceStatus `db:"status" json:"status"`
}
