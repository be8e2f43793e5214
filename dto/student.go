package dto

type CreateStudentRequest struct {
	Name   string `json:"name" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
	Image  string `json:"image"`
	Status string `json:"status"`
}

type UpdateStudentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,finite_lat"`
	Longitude *float64 `json:"longitude" binding:"required,finite_lon"`
}
