package model

// Product is a catalog item. AverageRating and NumOfReviews are derived from its reviews.
type Product struct {
	Meta          `bson:",inline"`
	Name          string  `json:"name" bson:"name" validate:"required"`
	Description   string  `json:"description" bson:"description"`
	Price         float64 `json:"price" bson:"price" validate:"gt=0"`
	Category      string  `json:"category" bson:"category"`
	Stock         int     `json:"stock" bson:"stock" validate:"gte=0"`
	Brand         string  `json:"brand" bson:"brand"`
	Image         *Image  `json:"image,omitempty" bson:"image,omitempty"`
	AverageRating float64 `json:"averageRating" bson:"averageRating"`
	NumOfReviews  int     `json:"numOfReviews" bson:"numOfReviews"`
}

