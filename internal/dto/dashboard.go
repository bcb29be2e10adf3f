package dto

import (
	"github.com/colegio-altavista/portal-api/internal/models"
)

// StudentDashboardResponse aggregates everything the student portal shows.
type StudentDashboardResponse struct {
	CurrentPeriod *models.AcademicPeriod       `json:"current_period,omitempty"`
	Classes       []models.ClassDetail         `json:"classes"`
	Assignments   []models.AssignmentStatusRow `json:"assignments"`
	Notifications []models.Notification        `json:"notifications"`
}

// TeacherDashboardClass pairs a taught class with its roster.
type TeacherDashboardClass struct {
	models.ClassDetail
	Students []models.ClassRosterEntry `json:"students"`
}

// TeacherDashboardResponse aggregates the teacher portal view.
type TeacherDashboardResponse struct {
	CurrentPeriod *models.AcademicPeriod  `json:"current_period,omitempty"`
	Classes       []TeacherDashboardClass `json:"classes"`
	Notifications []models.Notification   `json:"notifications"`
}

// AdminDashboardResponse carries the recent news page shown on the
// admin portal; notification creation posts against its own endpoint.
type AdminDashboardResponse struct {
	News       []models.NewsPostDetail `json:"news"`
	Pagination *models.Pagination      `json:"pagination,omitempty"`
}
