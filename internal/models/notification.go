package models

import "time"

// NotificationAudience defines which role group receives a notification.
type NotificationAudience string

const (
	NotificationAudienceAll      NotificationAudience = "ALL"
	NotificationAudienceStudents NotificationAudience = "STUDENTS"
	NotificationAudienceTeachers NotificationAudience = "TEACHERS"
)

// Valid reports whether the audience is a supported value.
func (a NotificationAudience) Valid() bool {
	switch a {
	case NotificationAudienceAll, NotificationAudienceStudents, NotificationAudienceTeachers:
		return true
	default:
		return false
	}
}

// Notification is a short broadcast message sent to an audience segment.
type Notification struct {
	ID       string               `db:"id" json:"id"`
	Message  string               `db:"message" json:"message"`
	Audience NotificationAudience `db:"audience" json:"audience"`
	AuthorID string               `db:"author_id" json:"author_id"`
	SentAt   time.Time            `db:"sent_at" json:"sent_at"`
}
