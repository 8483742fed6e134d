package model

// WhatYouLearn describes the outcome of a RoboGenius program.
type WhatYouLearn struct {
	Description string `json:"description" bson:"description" validate:"required"`
	Skills      string `json:"skills" bson:"skills" validate:"required"`
}

// RoboGenius is an entry of the robotics program catalog.
type RoboGenius struct {
	Meta           `bson:",inline"`
	Title          string       `json:"title" bson:"title" validate:"required"`
	Description    string       `json:"description" bson:"description" validate:"required"`
	MonthlyPrice   *float64     `json:"monthlyPrice,omitempty" bson:"monthlyPrice,omitempty" validate:"omitempty,gte=0"`
	AnnualPrice    *float64     `json:"annualPrice,omitempty" bson:"annualPrice,omitempty" validate:"omitempty,gte=0"`
	Category       string       `json:"category" bson:"category" validate:"required"`
	WhatYouLearn   WhatYouLearn `json:"whatYouLearn" bson:"whatYouLearn"`
	TargetAudience string       `json:"targetAudience" bson:"targetAudience" validate:"required"`
	Features       string       `json:"features,omitempty" bson:"features,omitempty"`
	Requirements   string       `json:"requirements,omitempty" bson:"requirements,omitempty"`
	Rating         float64      `json:"rating" bson:"rating" validate:"gte=1,lte=5"`
	VideoURL       string       `json:"videoUrl" bson:"videoUrl" validate:"required"`
	Image          *Image       `json:"image,omitempty" bson:"image,omitempty"`
}
