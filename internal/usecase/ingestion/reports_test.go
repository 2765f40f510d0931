package ingestion

import (
	"context"
	"errors"
	"testing"

	"revpipe/internal/domain/ingest"
	"revpipe/internal/infrastructure/persistence/sqlite/model"
)

func TestIngestReportBatchCreatesGraph(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	if err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{reviewMessage("R1", "Laptop 15", "MFR1")}); err != nil {
		t.Fatalf("seed review: %v", err)
	}
	if err := svc.IngestReportBatch(ctx, []ingest.ReportMessage{reportMessage("R1")}); err != nil {
		t.Fatalf("IngestReportBatch() error = %v", err)
	}

	if got := countRows(t, db, &model.Report{}); got != 1 {
		t.Fatalf("reports = %d, want 1", got)
	}
	if got := countRows(t, db, &model.Issue{}); got != 1 {
		t.Fatalf("issues = %d, want 1", got)
	}
	if got := countRows(t, db, &model.IssueImage{}); got != 1 {
		t.Fatalf("issue images = %d, want 1", got)
	}
	if got := countRows(t, db, &model.ReliabilityKeyframe{}); got != 2 {
		t.Fatalf("keyframes = %d, want 2", got)
	}

	var report model.Report
	if err := db.Take(&report).Error; err != nil {
		t.Fatalf("load report: %v", err)
	}
	if report.ReviewID == nil {
		t.Fatalf("report not linked to review")
	}
	var review model.Review
	if err := db.Take(&review, "external_review_id = ?", "R1").Error; err != nil {
		t.Fatalf("load review: %v", err)
	}
	if *report.ReviewID != review.ReviewID {
		t.Fatalf("report review id = %d, want %d", *report.ReviewID, review.ReviewID)
	}
}

func TestIngestReportBeforeReviewStaysRetryable(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	// The analyzer can outrun the review consumer; the report must fail
	// with a retryable error and succeed unchanged once the review lands.
	err := svc.IngestReportBatch(ctx, []ingest.ReportMessage{reportMessage("R1")})
	if !errors.Is(err, ingest.ErrReviewNotFound) {
		t.Fatalf("IngestReportBatch() error = %v, want ErrReviewNotFound", err)
	}
	if ingest.ClassifyFailure(err) != ingest.FailureTransient {
		t.Fatalf("missing review not classified as transient")
	}
	if got := countRows(t, db, &model.Report{}); got != 0 {
		t.Fatalf("reports = %d, want 0 before review exists", got)
	}

	if err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{reviewMessage("R1", "Laptop 15", "MFR1")}); err != nil {
		t.Fatalf("ingest review: %v", err)
	}
	if err := svc.IngestReportBatch(ctx, []ingest.ReportMessage{reportMessage("R1")}); err != nil {
		t.Fatalf("retry after review: %v", err)
	}
	if got := countRows(t, db, &model.Report{}); got != 1 {
		t.Fatalf("reports = %d, want 1 after retry", got)
	}
}

func TestIngestReportBatchMissingReviewAbortsWholeBatch(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	if err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{reviewMessage("R1", "Laptop 15", "MFR1")}); err != nil {
		t.Fatalf("seed review: %v", err)
	}

	err := svc.IngestReportBatch(ctx, []ingest.ReportMessage{
		reportMessage("R1"),
		reportMessage("R404"),
	})
	if !errors.Is(err, ingest.ErrReviewNotFound) {
		t.Fatalf("IngestReportBatch() error = %v, want ErrReviewNotFound", err)
	}
	if got := countRows(t, db, &model.Report{}); got != 0 {
		t.Fatalf("reports = %d, want 0 after rollback", got)
	}
}

func TestHandleReportsMessageMalformedBody(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.HandleReportsMessage(context.Background(), []byte(`[{"report_weight": 1}]`))
	if !errors.Is(err, ingest.ErrMalformed) {
		t.Fatalf("HandleReportsMessage() error = %v, want ErrMalformed", err)
	}
}
