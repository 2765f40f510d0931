package model

import "time"

type Review struct {
	ReviewID            uint64    `gorm:"column:review_id;primaryKey;autoIncrement"`
	ExternalID          string    `gorm:"column:external_review_id;type:text;not null;uniqueIndex"`
	ProductID           uint64    `gorm:"column:product_id;not null;index"`
	AuthorID            string    `gorm:"column:author_id;type:text;not null"`
	AuthorName          string    `gorm:"column:author_name;type:text;not null"`
	AuthorImageURL      string    `gorm:"column:author_image_url;type:text;not null"`
	Title               string    `gorm:"column:title;type:text;not null"`
	Text                string    `gorm:"column:text;type:text;not null"`
	Date                time.Time `gorm:"column:date;not null"`
	DateText            string    `gorm:"column:date_text;type:text;not null"`
	AttributesJSON      string    `gorm:"column:attributes;type:text;not null"`
	VerifiedPurchase    bool      `gorm:"column:verified_purchase;not null;default:0"`
	FoundHelpfulCount   int64     `gorm:"column:found_helpful_count;not null;default:0"`
	IsTopPositiveReview bool      `gorm:"column:is_top_positive_review;not null;default:0"`
	IsTopCriticalReview bool      `gorm:"column:is_top_critical_review;not null;default:0"`
	CountryReviewedIn   string    `gorm:"column:country_reviewed_in;type:text;not null"`
	Region              string    `gorm:"column:region;type:text;not null"`
}

func (Review) TableName() string {
	return "reviews"
}

type ReviewImage struct {
	ReviewImageID uint64 `gorm:"column:review_image_id;primaryKey;autoIncrement"`
	ReviewID      uint64 `gorm:"column:review_id;not null;index"`
	ImageURL      string `gorm:"column:image_url;type:text;not null"`
}

func (ReviewImage) TableName() string {
	return "review_images"
}
