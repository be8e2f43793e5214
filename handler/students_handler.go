package handler

import (
	"errors"

	"safemove/dto"
	"safemove/usecase"
	"safemove/utils"

	"github.com/gin-gonic/gin"
)

func CreateStudentHandler(c *gin.Context, studentService *usecase.StudentService) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Name and phone are required")
		return
	}

	student, err := studentService.CreateStudent(c, req.Name, req.Phone, req.Image, req.Status)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.Created(c, gin.H{
		"message": "Student added successfully",
		"student": student,
	})
}

func SearchStudentsHandler(c *gin.Context, studentService *usecase.StudentService) {
	students, err := studentService.SearchStudents(c, c.Query("name"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch students")
		return
	}

	utils.Success(c, gin.H{
		"students": students,
	})
}

func GetStudentHandler(c *gin.Context, studentService *usecase.StudentService) {
	student, err := studentService.GetStudent(c, c.Param("studentId"))
	if err != nil {
		if errors.Is(err, usecase.ErrStudentNotFound) {
			utils.NotFound(c, "Student not found")
			return
		}
		utils.InternalError(c, "Failed to fetch student")
		return
	}

	utils.Success(c, gin.H{
		"student": student,
	})
}

func UpdateStudentStatusHandler(c *gin.Context, studentService *usecase.StudentService) {
	var req dto.UpdateStudentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Status is required")
		return
	}

	if err := studentService.SetStatus(c, c.Param("studentId"), req.Status); err != nil {
		if errors.Is(err, usecase.ErrStudentNotFound) {
			utils.NotFound(c, "Student not found")
			return
		}
		utils.BadRequest(c, err.Error())
		return
	}

	utils.Success(c, gin.H{
		"message": "Student status updated successfully",
	})
}

// UpdateStudentLocationHandler keeps the last-known position record that
// backs map views independently of the live relay
func UpdateStudentLocationHandler(c *gin.Context, studentService *usecase.StudentService) {
	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Latitude and longitude are required and must be numbers")
		return
	}

	if err := studentService.RecordLocation(c, c.Param("studentId"), *req.Latitude, *req.Longitude); err != nil {
		if errors.Is(err, usecase.ErrStudentNotFound) {
			utils.NotFound(c, "Student not found")
			return
		}
		utils.BadRequest(c, err.Error())
		return
	}

	utils.Success(c, gin.H{
		"message": "Student location updated successfully",
	})
}

func DeleteStudentHandler(c *gin.Context, studentService *usecase.StudentService) {
	if err := studentService.DeleteStudent(c, c.Param("studentId")); err != nil {
		if errors.Is(err, usecase.ErrStudentNotFound) {
			utils.NotFound(c, "Student not found")
			return
		}
		utils.InternalError(c, "Failed to delete student")
		return
	}

	utils.Success(c, gin.H{
		"message": "Student deleted successfully",
	})
}
