package models

import "time"

// TeacherStatus captures the administrative standing of a teacher.
type TeacherStatus string

const (
	TeacherStatusActive   TeacherStatus = "ACTIVE"
	TeacherStatusInactive TeacherStatus = "INACTIVE"
	TeacherStatusLeave    TeacherStatus = "LEAVE"
)

// Valid reports whether the status is a supported value.
func (s TeacherStatus) Valid() bool {
	switch s {
	case TeacherStatusActive, TeacherStatusInactive, TeacherStatusLeave:
		return true
	default:
		return false
	}
}

// StudentProfile holds the student-specific attributes attached 1:1 to a user.
// The owning user row is the primary key; deleting the user cascades here.
type StudentProfile struct {
	UserID           string    `db:"user_id" json:"user_id"`
	StudentNumber    string    `db:"student_number" json:"student_number"`
	BirthDate        time.Time `db:"birth_date" json:"birth_date"`
	GuardianName     string    `db:"guardian_name" json:"guardian_name"`
	GuardianPhone    *string   `db:"guardian_phone" json:"guardian_phone,omitempty"`
	Address          *string   `db:"address" json:"address,omitempty"`
	EmergencyContact string    `db:"emergency_contact" json:"emergency_contact"`
	MedicalNotes     *string   `db:"medical_notes" json:"medical_notes,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// StudentProfileDetail enriches the profile with account fields for listings.
type StudentProfileDetail struct {
	StudentProfile
	Username string `db:"username" json:"username"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Active   bool   `db:"active" json:"active"`
}

// TeacherProfile holds the teacher-specific attributes attached 1:1 to a user.
type TeacherProfile struct {
	UserID         string        `db:"user_id" json:"user_id"`
	EmployeeNumber string        `db:"employee_number" json:"employee_number"`
	Specialty      string        `db:"specialty" json:"specialty"`
	HireDate       time.Time     `db:"hire_date" json:"hire_date"`
	Phone          *string       `db:"phone" json:"phone,omitempty"`
	PhotoPath      *string       `db:"photo_path" json:"photo_path,omitempty"`
	AcademicTitle  *string       `db:"academic_title" json:"academic_title,omitempty"`
	Bio            *string       `db:"bio" json:"bio,omitempty"`
	Status         TeacherStatus `db:"status" json:"status"`
	EmergencyName  *string       `db:"emergency_name" json:"emergency_name,omitempty"`
	EmergencyPhone *string       `db:"emergency_phone" json:"emergency_phone,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// TeacherProfileDetail enriches the profile with account fields for listings.
type TeacherProfileDetail struct {
	TeacherProfile
	Username string `db:"username" json:"username"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Active   bool   `db:"active" json:"active"`
}

// ProfileFilter captures list filters shared by both profile kinds.
type ProfileFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
