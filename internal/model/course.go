package model

import "slices"

const (
	CourseCategoryCourse  = "course"
	CourseCategoryProduct = "product"

	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Video is a single lesson inside a section.
type Video struct {
	ID          string `json:"id" bson:"id" validate:"required"`
	Name        string `json:"name" bson:"name" validate:"required"`
	Description string `json:"description" bson:"description" validate:"required"`
	Link        string `json:"link,omitempty" bson:"link,omitempty"`
}

// Section groups videos in order.
type Section struct {
	ID          string  `json:"id" bson:"id" validate:"required"`
	Name        string  `json:"name" bson:"name" validate:"required"`
	Description string  `json:"description" bson:"description" validate:"required"`
	Videos      []Video `json:"videos" bson:"videos" validate:"dive"`
}

// Course is an instructor-led course. Students never contains duplicates.
type Course struct {
	Meta        `bson:",inline"`
	Title       string    `json:"title" bson:"title" validate:"required"`
	Description string    `json:"description" bson:"description" validate:"required"`
	Instructor  string    `json:"instructor" bson:"instructor" validate:"required"`
	Duration    float64   `json:"duration" bson:"duration" validate:"gt=0"`
	Price       float64   `json:"price" bson:"price" validate:"gt=0"`
	Category    string    `json:"category" bson:"category" validate:"oneof=course product"`
	Level       string    `json:"level" bson:"level" validate:"oneof=Beginner Intermediate Advanced"`
	Sections    []Section `json:"sections" bson:"sections" validate:"required,dive"`
	Students    []string  `json:"students" bson:"students"`
	Image       *Image    `json:"image,omitempty" bson:"image,omitempty"`
}

// HasStudent reports whether userID is enrolled.
func (c *Course) HasStudent(userID string) bool {
	return slices.Contains(c.Students, userID)
}
