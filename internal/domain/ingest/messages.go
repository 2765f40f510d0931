package ingest

import (
	"encoding/json"
	"fmt"
	"time"
)

// Queue and exchange names are part of the wire contract shared with the
// crawler/analyzer fleet and must match exactly.
const (
	QueueParse         = "parse"
	QueueParsedReviews = "parsed_reviews"
	QueueReports       = "reports"
	QueueToAnalyze     = "to_analyze"
	ExchangeToCrawl    = "to_crawl"
)

type ReviewSource string

const SourceAmazon ReviewSource = "amazon"

type ReviewRegion string

const (
	RegionCom ReviewRegion = "com"
	RegionCa  ReviewRegion = "ca"
)

func (r ReviewRegion) Valid() bool {
	return r == RegionCom || r == RegionCa
}

// ProductDescriptor is the body published to the parse queue.
type ProductDescriptor struct {
	ID     string       `json:"id"`
	Type   ReviewSource `json:"type"`
	Region ReviewRegion `json:"region"`
}

// ReviewInfo rides along with a crawl command so the crawler knows which
// source/region parser to hand discovered products to.
type ReviewInfo struct {
	Type   ReviewSource `json:"type"`
	Region ReviewRegion `json:"region"`
}

const (
	CommandSet    = "set"
	CommandCancel = "cancel"
)

// CrawlerCommand is broadcast on the to_crawl fanout exchange. Only the two
// tagged variants exist: set (with url and review info) and cancel.
type CrawlerCommand struct {
	Command    string      `json:"command"`
	URL        string      `json:"url,omitempty"`
	ReviewInfo *ReviewInfo `json:"review_info,omitempty"`
}

// NewSetCommand targets the crawler at a category URL. The region is
// inferred from the URL host.
func NewSetCommand(url string) CrawlerCommand {
	return CrawlerCommand{
		Command: CommandSet,
		URL:     url,
		ReviewInfo: &ReviewInfo{
			Type:   SourceAmazon,
			Region: InferRegion(url),
		},
	}
}

func NewCancelCommand() CrawlerCommand {
	return CrawlerCommand{Command: CommandCancel}
}

// ReviewMessage is one element of a parsed_reviews batch.
type ReviewMessage struct {
	AuthorID            string          `json:"author_id"`
	AuthorName          string          `json:"author_name"`
	AuthorImageURL      string          `json:"author_image_url"`
	Title               string          `json:"title"`
	Text                string          `json:"text"`
	Date                int64           `json:"date"`
	DateText            string          `json:"date_text"`
	ReviewID            string          `json:"review_id"`
	Attributes          json.RawMessage `json:"attributes"`
	VerifiedPurchase    bool            `json:"verified_purchase"`
	FoundHelpfulCount   int64           `json:"found_helpful_count"`
	IsTopPositiveReview bool            `json:"is_top_positive_review"`
	IsTopCriticalReview bool            `json:"is_top_critical_review"`
	Images              []string        `json:"images"`
	CountryReviewedIn   string          `json:"country_reviewed_in"`
	Region              ReviewRegion    `json:"region"`
	ManufacturerID      string          `json:"manufacturer_id"`
	ManufacturerName    string          `json:"manufacturer_name"`
	ProductName         string          `json:"product_name"`
}

// PostedAt interprets the wire date as Unix epoch seconds.
func (m ReviewMessage) PostedAt() time.Time {
	return time.Unix(m.Date, 0).UTC()
}

// AttributesJSON returns the opaque attribute bag as a JSON string, never
// empty.
func (m ReviewMessage) AttributesJSON() string {
	if len(m.Attributes) == 0 {
		return "{}"
	}
	return string(m.Attributes)
}

// IssueMessage is one extracted issue inside a report.
type IssueMessage struct {
	Text           string   `json:"text"`
	Classification *string  `json:"classification"`
	Criticality    *float64 `json:"criticality"`
	RelTimestamp   *int64   `json:"rel_timestamp"`
	Frequency      *string  `json:"frequency"`
	Resolution     *string  `json:"resolution"`
	Images         []string `json:"images"`
}

// KeyframeMessage is one sample of the reliability trend time series.
type KeyframeMessage struct {
	RelTimestamp int64   `json:"rel_timestamp"`
	Sentiment    float64 `json:"sentiment"`
	Interp       *string `json:"interp"`
}

// ReportMessage is one element of a reports batch. ReviewID references the
// external review identifier, not a row id.
type ReportMessage struct {
	ReviewID     string            `json:"review_id"`
	ReportWeight float64           `json:"report_weight"`
	Issues       []IssueMessage    `json:"issues"`
	Keyframes    []KeyframeMessage `json:"reliability_keyframes"`
}

// DecodeReviewBatch parses a parsed_reviews message body into validated
// review messages. All failures wrap ErrMalformed.
func DecodeReviewBatch(body []byte) ([]ReviewMessage, error) {
	var batch []ReviewMessage
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("%w: decode review batch: %v", ErrMalformed, err)
	}

	for i, msg := range batch {
		if msg.ReviewID == "" {
			return nil, fmt.Errorf("%w: review item %d: review_id is required", ErrMalformed, i)
		}
		if msg.ProductName == "" {
			return nil, fmt.Errorf("%w: review item %d: product_name is required", ErrMalformed, i)
		}
		if msg.ManufacturerID == "" {
			return nil, fmt.Errorf("%w: review item %d: manufacturer_id is required", ErrMalformed, i)
		}
		if msg.Region != "" && !msg.Region.Valid() {
			return nil, fmt.Errorf("%w: review item %d: unknown region %q", ErrMalformed, i, msg.Region)
		}
	}

	return batch, nil
}

// DecodeReportBatch parses a reports message body into validated report
// messages. All failures wrap ErrMalformed.
func DecodeReportBatch(body []byte) ([]ReportMessage, error) {
	var batch []ReportMessage
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("%w: decode report batch: %v", ErrMalformed, err)
	}

	for i, msg := range batch {
		if msg.ReviewID == "" {
			return nil, fmt.Errorf("%w: report item %d: review_id is required", ErrMalformed, i)
		}
		for j, issue := range msg.Issues {
			if issue.Text == "" {
				return nil, fmt.Errorf("%w: report item %d issue %d: text is required", ErrMalformed, i, j)
			}
			if issue.Criticality != nil && (*issue.Criticality < 0 || *issue.Criticality > 1) {
				return nil, fmt.Errorf("%w: report item %d issue %d: criticality %v out of range", ErrMalformed, i, j, *issue.Criticality)
			}
		}
	}

	return batch, nil
}
