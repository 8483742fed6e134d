package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/iyhunko/academy-backend/internal/model"
)

// CourseRepository stores courses and updates their student set in place.
type CourseRepository struct {
	*collectionRepository[*model.Course]
}

// AddStudent pushes userID onto the course's students unless it is already there.
// The membership check is part of the update filter.
func (r *CourseRepository) AddStudent(ctx context.Context, courseID, userID string) (bool, error) {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": courseID, "students": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"students": userID},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to add student: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// RemoveStudent pulls userID from the course's students if present.
func (r *CourseRepository) RemoveStudent(ctx context.Context, courseID, userID string) (bool, error) {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": courseID, "students": userID},
		bson.M{
			"$pull": bson.M{"students": userID},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove student: %w", err)
	}
	return result.MatchedCount > 0, nil
}
