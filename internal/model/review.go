package model

// Review is a rating left by a user on a product.
type Review struct {
	Meta    `bson:",inline"`
	Product string `json:"product" bson:"product" validate:"required"`
	User    string `json:"user" bson:"user" validate:"required"`
	Rating  int    `json:"rating" bson:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" bson:"comment"`
}

// RatingSummary aggregates the reviews of one product.
type RatingSummary struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}
