package dto

type DashboardResponse struct {
	MedicalRecords       int64 `json:"medical_records"`
	UpcomingAppointments int64 `json:"upcoming_appointments"`
	ActiveInsurances     int64 `json:"active_insurances"`
	UnreadNotifications  int64 `json:"unread_notifications"`
	HasMedicalCard       bool  `json:"has_medical_card"`
}
