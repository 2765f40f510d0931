package model

import "time"

// Report either links to an ingested review (scrape path) or carries a
// purchase date (user-submitted path, written outside this pipeline).
type Report struct {
	ReportID     uint64     `gorm:"column:report_id;primaryKey;autoIncrement"`
	ReviewID     *uint64    `gorm:"column:review_id;index"`
	ReportWeight float64    `gorm:"column:report_weight;not null"`
	PurchaseDate *time.Time `gorm:"column:purchase_date"`

	Issues    []Issue               `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
	Keyframes []ReliabilityKeyframe `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
}

func (Report) TableName() string {
	return "reports"
}

type Issue struct {
	IssueID        uint64   `gorm:"column:issue_id;primaryKey;autoIncrement"`
	ReportID       uint64   `gorm:"column:report_id;not null;index"`
	Text           string   `gorm:"column:text;type:text;not null"`
	Classification *string  `gorm:"column:classification;type:text"`
	Criticality    *float64 `gorm:"column:criticality"`
	RelTimestamp   *int64   `gorm:"column:rel_timestamp"`
	Frequency      *string  `gorm:"column:frequency;type:text"`
	Resolution     *string  `gorm:"column:resolution;type:text"`

	Images []IssueImage `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
}

func (Issue) TableName() string {
	return "issues"
}

type IssueImage struct {
	IssueImageID uint64 `gorm:"column:issue_image_id;primaryKey;autoIncrement"`
	IssueID      uint64 `gorm:"column:issue_id;not null;index"`
	ImageURL     string `gorm:"column:image_url;type:text;not null"`
}

func (IssueImage) TableName() string {
	return "issue_images"
}

type ReliabilityKeyframe struct {
	KeyframeID   uint64  `gorm:"column:keyframe_id;primaryKey;autoIncrement"`
	ReportID     uint64  `gorm:"column:report_id;not null;index"`
	RelTimestamp int64   `gorm:"column:rel_timestamp;not null"`
	Sentiment    float64 `gorm:"column:sentiment;not null"`
	Interp       *string `gorm:"column:interp;type:text"`
}

func (ReliabilityKeyframe) TableName() string {
	return "reliability_keyframes"
}
