package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeReviewBatch(t *testing.T) {
	body := []byte(`[{
		"author_id": "a1",
		"author_name": "Sam",
		"author_image_url": "https://img.example/a1",
		"title": "Broke after a week",
		"text": "The hinge cracked.",
		"date": 1681084800,
		"date_text": "April 10, 2023",
		"review_id": "R1ABC",
		"attributes": {"Color": "Black"},
		"verified_purchase": true,
		"found_helpful_count": 4,
		"is_top_positive_review": false,
		"is_top_critical_review": true,
		"images": ["https://img.example/1.jpg"],
		"country_reviewed_in": "Canada",
		"region": "ca",
		"manufacturer_id": "MFR123",
		"manufacturer_name": "Acme",
		"product_name": "Acme Laptop 15"
	}]`)

	batch, err := DecodeReviewBatch(body)
	if err != nil {
		t.Fatalf("DecodeReviewBatch() error = %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("len(batch) = %d, want 1", len(batch))
	}

	msg := batch[0]
	if msg.ReviewID != "R1ABC" {
		t.Fatalf("review_id = %q", msg.ReviewID)
	}
	want := time.Date(2023, 4, 10, 0, 0, 0, 0, time.UTC)
	if !msg.PostedAt().Equal(want) {
		t.Fatalf("PostedAt() = %v, want %v", msg.PostedAt(), want)
	}
	if msg.AttributesJSON() != `{"Color": "Black"}` {
		t.Fatalf("AttributesJSON() = %q", msg.AttributesJSON())
	}
}

func TestDecodeReviewBatchRejectsNonJSON(t *testing.T) {
	_, err := DecodeReviewBatch([]byte("not json"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("DecodeReviewBatch() error = %v, want ErrMalformed", err)
	}
}

func TestDecodeReviewBatchRejectsMissingReviewID(t *testing.T) {
	body := []byte(`[{"product_name": "p", "manufacturer_id": "m"}]`)
	_, err := DecodeReviewBatch(body)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("DecodeReviewBatch() error = %v, want ErrMalformed", err)
	}
}

func TestDecodeReviewBatchRejectsUnknownRegion(t *testing.T) {
	body := []byte(`[{"review_id": "r", "product_name": "p", "manufacturer_id": "m", "region": "de"}]`)
	_, err := DecodeReviewBatch(body)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("DecodeReviewBatch() error = %v, want ErrMalformed", err)
	}
}

func TestDecodeReportBatch(t *testing.T) {
	body := []byte(`[{
		"review_id": "R1ABC",
		"report_weight": 0.8,
		"issues": [{
			"text": "hinge cracked",
			"classification": "Stiff Hinge",
			"criticality": 0.3,
			"rel_timestamp": 7,
			"frequency": null,
			"images": []
		}],
		"reliability_keyframes": [
			{"rel_timestamp": 0, "sentiment": 0.6, "interp": "linear"},
			{"rel_timestamp": 7, "sentiment": -0.4, "interp": null}
		]
	}]`)

	batch, err := DecodeReportBatch(body)
	if err != nil {
		t.Fatalf("DecodeReportBatch() error = %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("len(batch) = %d, want 1", len(batch))
	}
	if batch[0].ReportWeight != 0.8 {
		t.Fatalf("report_weight = %v", batch[0].ReportWeight)
	}
	if len(batch[0].Issues) != 1 || len(batch[0].Keyframes) != 2 {
		t.Fatalf("issues/keyframes = %d/%d", len(batch[0].Issues), len(batch[0].Keyframes))
	}
	if *batch[0].Issues[0].RelTimestamp != 7 {
		t.Fatalf("issue rel_timestamp = %v", *batch[0].Issues[0].RelTimestamp)
	}
}

func TestDecodeReportBatchRejectsCriticalityOutOfRange(t *testing.T) {
	body := []byte(`[{"review_id": "r", "report_weight": 1, "issues": [{"text": "x", "criticality": 1.5}]}]`)
	_, err := DecodeReportBatch(body)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("DecodeReportBatch() error = %v, want ErrMalformed", err)
	}
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Failure
	}{
		{"malformed", ErrMalformed, FailureMalformed},
		{"wrapped malformed", errors.Join(errors.New("outer"), ErrMalformed), FailureMalformed},
		{"review not found", ErrReviewNotFound, FailureTransient},
		{"duplicate review", ErrDuplicateReview, FailurePersistent},
		{"unknown", errors.New("disk on fire"), FailurePersistent},
	}

	for _, tc := range cases {
		if got := ClassifyFailure(tc.err); got != tc.want {
			t.Fatalf("ClassifyFailure(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseProductLink(t *testing.T) {
	desc, err := ParseProductLink("https://www.amazon.ca/Acme-Laptop/dp/B0ABCD1234/ref=sr_1_1")
	if err != nil {
		t.Fatalf("ParseProductLink() error = %v", err)
	}
	if desc.ID != "B0ABCD1234" {
		t.Fatalf("id = %q, want B0ABCD1234", desc.ID)
	}
	if desc.Region != RegionCa {
		t.Fatalf("region = %q, want ca", desc.Region)
	}
	if desc.Type != SourceAmazon {
		t.Fatalf("type = %q", desc.Type)
	}
}

func TestParseProductLinkComRegion(t *testing.T) {
	desc, err := ParseProductLink("https://www.amazon.com/dp/B000000001/")
	if err != nil {
		t.Fatalf("ParseProductLink() error = %v", err)
	}
	if desc.Region != RegionCom {
		t.Fatalf("region = %q, want com", desc.Region)
	}
}

func TestParseProductLinkRejectsJunk(t *testing.T) {
	if _, err := ParseProductLink("https://example.com/dp/nope"); err == nil {
		t.Fatalf("ParseProductLink() expected error")
	}
}

func TestNewSetCommandInfersRegion(t *testing.T) {
	cmd := NewSetCommand("https://www.amazon.ca/b?node=677211011")
	if cmd.Command != CommandSet {
		t.Fatalf("command = %q", cmd.Command)
	}
	if cmd.ReviewInfo == nil || cmd.ReviewInfo.Region != RegionCa {
		t.Fatalf("review_info = %+v, want ca region", cmd.ReviewInfo)
	}

	cancel := NewCancelCommand()
	if cancel.Command != CommandCancel || cancel.ReviewInfo != nil {
		t.Fatalf("cancel command = %+v", cancel)
	}
}
