package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"safemove/model"
	"safemove/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StudentsRepo struct {
	MongoCollection *mongo.Collection
}

func GetStudentsRepo(client *mongo.Client) *StudentsRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := utils.GetEnvAsString("STUDENTS_COLLECTION", "students")
	return &StudentsRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

func (r *StudentsRepo) CreateStudent(ctx context.Context, student *model.Student) error {
	timer := utils.TrackDBOperation("insert", "students")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if student == nil {
		utils.TrackError("database", "nil_student")
		return fmt.Errorf("student cannot be nil")
	}
	if student.StudentID == "" || student.Name == "" || student.Phone == "" {
		utils.TrackError("database", "invalid_student_data")
		return fmt.Errorf("invalid student data: missing required fields")
	}

	if _, err := r.MongoCollection.InsertOne(ctx, student); err != nil {
		utils.TrackError("database", "student_creation_failed")
		return fmt.Errorf("failed to create student in database: %w", err)
	}
	return nil
}

func (r *StudentsRepo) FindStudent(ctx context.Context, studentID string) (*model.Student, error) {
	timer := utils.TrackDBOperation("find", "students")
	defer timer.ObserveDuration()

	if studentID == "" {
		return nil, fmt.Errorf("studentID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var student model.Student
	err := r.MongoCollection.FindOne(ctx, bson.M{"student_id": studentID}).Decode(&student)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "student_fetch_failed")
		return nil, fmt.Errorf("failed to fetch student from database: %w", err)
	}
	return &student, nil
}

// SearchStudents lists students, optionally filtered by a case-insensitive
// name substring
func (r *StudentsRepo) SearchStudents(ctx context.Context, nameQuery string) ([]*model.Student, error) {
	timer := utils.TrackDBOperation("find", "students")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if nameQuery != "" {
		filter["name"] = bson.M{"$regex": nameQuery, "$options": "i"}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.TrackError("database", "student_search_failed")
		return nil, fmt.Errorf("failed to search students: %w", err)
	}
	defer cursor.Close(ctx)

	var students []*model.Student
	if err := cursor.All(ctx, &students); err != nil {
		utils.TrackError("database", "student_decode_failed")
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}
	return students, nil
}

func (r *StudentsRepo) UpdateStatus(ctx context.Context, studentID, status string) (bool, error) {
	timer := utils.TrackDBOperation("update", "students")
	defer timer.ObserveDuration()

	if !model.ValidStudentStatus(status) {
		utils.TrackError("database", "invalid_student_status")
		return false, fmt.Errorf("invalid student status: %q", status)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"student_id": studentID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		utils.TrackError("database", "student_status_update_failed")
		return false, fmt.Errorf("failed to update student status: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// UpdateLocation keeps the last-known position per student, independent of
// the live relay
func (r *StudentsRepo) UpdateLocation(ctx context.Context, studentID string, latitude, longitude float64, at time.Time) (bool, error) {
	timer := utils.TrackDBOperation("update", "students")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"student_id": studentID},
		bson.M{"$set": bson.M{
			"latitude":   latitude,
			"longitude":  longitude,
			"located_at": at,
		}},
	)
	if err != nil {
		utils.TrackError("database", "student_location_update_failed")
		return false, fmt.Errorf("failed to update student location: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *StudentsRepo) DeleteStudent(ctx context.Context, studentID string) (bool, error) {
	timer := utils.TrackDBOperation("delete", "students")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"student_id": studentID})
	if err != nil {
		utils.TrackError("database", "student_delete_failed")
		return false, fmt.Errorf("failed to delete student: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *StudentsRepo) CountStudents(ctx context.Context) (int64, error) {
	timer := utils.TrackDBOperation("count", "students")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.TrackError("database", "student_count_failed")
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

func (r *StudentsRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	timer := utils.TrackDBOperation("count", "students")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		utils.TrackError("database", "student_count_failed")
		return 0, fmt.Errorf("failed to count students by status: %w", err)
	}
	return count, nil
}
