package dto

// AttendanceSheetRow is one pre-filled line of the attendance sheet: a
// student and their recorded status for the selected date, defaulting to
// absent when no record exists yet.
type AttendanceSheetRow struct {
	StudentID     string `json:"student_id"`
	StudentNumber string `json:"student_number"`
	StudentName   string `json:"student_name"`
	Status        string `json:"status"`
}

// AttendanceSheetResponse is the date-indexed sheet for one class.
type AttendanceSheetResponse struct {
	ClassID  string               `json:"class_id"`
	Date     string               `json:"date"`
	PrevDate string               `json:"prev_date"`
	NextDate string               `json:"next_date"`
	IsToday  bool                 `json:"is_today"`
	Rows     []AttendanceSheetRow `json:"rows"`
}
