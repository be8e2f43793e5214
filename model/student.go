package model

import "time"

const (
	StatusInsideHostel = "inside hostel"
	StatusOnTrip       = "on a trip"
)

type Student struct {
	StudentID string     `bson:"student_id" json:"student_id"`
	Name      string     `bson:"name" json:"name"`
	Phone     string     `bson:"phone" json:"phone"`
	Image     string     `bson:"image,omitempty" json:"image,omitempty"`
	Status    string     `bson:"status" json:"status"`
	Latitude  *float64   `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64   `bson:"longitude,omitempty" json:"longitude,omitempty"`
	LocatedAt *time.Time `bson:"located_at,omitempty" json:"located_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}

func ValidStudentStatus(status string) bool {
	return status == StatusInsideHostel || status == StatusOnTrip
}
