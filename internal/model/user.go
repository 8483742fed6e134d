package model

// User is the enrollment view of an account issued by the auth system.
type User struct {
	Meta            `bson:",inline"`
	Username        string   `json:"username" bson:"username"`
	Email           string   `json:"email" bson:"email"`
	EnrolledCourses []string `json:"enrolledCourses" bson:"enrolledCourses"`
}
