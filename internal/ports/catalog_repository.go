package ports

import (
	"context"
	"time"
)

// ReviewCreate carries everything needed to insert a review row with its
// nested image rows.
type ReviewCreate struct {
	ExternalID          string
	ProductID           uint64
	AuthorID            string
	AuthorName          string
	AuthorImageURL      string
	Title               string
	Text                string
	Date                time.Time
	DateText            string
	AttributesJSON      string
	VerifiedPurchase    bool
	FoundHelpfulCount   int64
	IsTopPositiveReview bool
	IsTopCriticalReview bool
	CountryReviewedIn   string
	Region              string
	ImageURLs           []string
}

// ReviewRef is the slice of a review the report path needs.
type ReviewRef struct {
	ReviewID   uint64
	ExternalID string
	ProductID  uint64
	Date       time.Time
}

type IssueCreate struct {
	Text           string
	Classification *string
	Criticality    *float64
	RelTimestamp   *int64
	Frequency      *string
	Resolution     *string
	ImageURLs      []string
}

type KeyframeCreate struct {
	RelTimestamp int64
	Sentiment    float64
	Interp       *string
}

// ReportCreate carries a full report graph. ReviewID is nullable because
// user-submitted reports (out of this pipeline's scope) link to a purchase
// date instead.
type ReportCreate struct {
	ReviewID     *uint64
	ReportWeight float64
	PurchaseDate *time.Time
	Issues       []IssueCreate
	Keyframes    []KeyframeCreate
}

// CatalogRepository is the write path into the catalog store. Resolve
// operations are atomic lookup-or-create: concurrent calls with the same
// natural key must converge on one row. Sentinel errors come from
// internal/domain/ingest: CreateReview returns ErrDuplicateReview on an
// already-ingested external id, GetReviewByExternalID returns
// ErrReviewNotFound when the review has not arrived yet.
type CatalogRepository interface {
	ResolveManufacturer(ctx context.Context, storeID string, name string) (uint64, error)
	ResolveProduct(ctx context.Context, name string, manufacturerID uint64) (uint64, error)
	CreateReview(ctx context.Context, input ReviewCreate) (uint64, error)
	GetReviewByExternalID(ctx context.Context, externalID string) (ReviewRef, error)
	CreateReport(ctx context.Context, input ReportCreate) (uint64, error)
}
