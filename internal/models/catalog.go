package models

import "time"

// AcademicPeriod models a school term on the institutional calendar.
// The current period is the one with the latest start date; there is no
// explicit active flag.
type AcademicPeriod struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Course is a catalog subject; classes are its scheduled instances.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Class is one scheduled instance of a course within an academic period,
// taught by a single teacher on a fixed weekly slot.
type Class struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	PeriodID  string    `db:"period_id" json:"period_id"`
	Weekday   int       `db:"weekday" json:"weekday"`
	StartTime string    `db:"start_time" json:"start_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassDetail extends Class with course and teacher info for responses.
type ClassDetail struct {
	Class
	CourseName  string `db:"course_name" json:"course_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// ClassRosterEntry is one enrolled student in a class.
type ClassRosterEntry struct {
	StudentID     string `db:"student_id" json:"student_id"`
	StudentNumber string `db:"student_number" json:"student_number"`
	FullName      string `db:"full_name" json:"full_name"`
}
