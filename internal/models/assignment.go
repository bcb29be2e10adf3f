package models

import "time"

// Assignment is coursework published for a class with a due timestamp
// and an optional attached resource file.
type Assignment struct {
	ID           string    `db:"id" json:"id"`
	ClassID      string    `db:"class_id" json:"class_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	DueAt        time.Time `db:"due_at" json:"due_at"`
	ResourcePath *string   `db:"resource_path" json:"resource_path,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentStatusRow is an assignment annotated with a single student's
// submission state. Submitted and Grade come from one correlated lookup
// so dashboards never fan out per assignment.
type AssignmentStatusRow struct {
	Assignment
	CourseName string   `db:"course_name" json:"course_name"`
	Submitted  bool     `db:"submitted" json:"submitted"`
	Grade      *float64 `db:"grade" json:"grade,omitempty"`
}

// Submission is a student's work for an assignment. At most one row
// exists per (assignment, student); resubmission overwrites in place.
type Submission struct {
	ID              string    `db:"id" json:"id"`
	AssignmentID    string    `db:"assignment_id" json:"assignment_id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	FilePath        string    `db:"file_path" json:"file_path"`
	Comments        *string   `db:"comments" json:"comments,omitempty"`
	Grade           *float64  `db:"grade" json:"grade,omitempty"`
	TeacherComments *string   `db:"teacher_comments" json:"teacher_comments,omitempty"`
	SubmittedAt     time.Time `db:"submitted_at" json:"submitted_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SubmissionDetail extends Submission with student identity for grading lists.
type SubmissionDetail struct {
	Submission
	StudentNumber string `db:"student_number" json:"student_number"`
	StudentName   string `db:"student_name" json:"student_name"`
}
