package ingestion

import (
	"context"
	"errors"
	"testing"

	"revpipe/internal/domain/ingest"
	"revpipe/internal/infrastructure/persistence/sqlite/model"
)

func TestIngestReviewBatchCreatesGraph(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{
		reviewMessage("R1", "Laptop 15", "MFR1"),
		reviewMessage("R2", "Laptop 15", "MFR1"),
	})
	if err != nil {
		t.Fatalf("IngestReviewBatch() error = %v", err)
	}

	if got := countRows(t, db, &model.Manufacturer{}); got != 1 {
		t.Fatalf("manufacturers = %d, want 1", got)
	}
	if got := countRows(t, db, &model.Product{}); got != 1 {
		t.Fatalf("products = %d, want 1", got)
	}
	if got := countRows(t, db, &model.Review{}); got != 2 {
		t.Fatalf("reviews = %d, want 2", got)
	}
	if got := countRows(t, db, &model.ReviewImage{}); got != 2 {
		t.Fatalf("review images = %d, want 2", got)
	}
}

func TestIngestReviewBatchIdempotentManufacturerResolution(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	// Two separate deliveries referencing the same store identifier.
	if err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{reviewMessage("R1", "Laptop 15", "MFR1")}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{reviewMessage("R2", "Tablet 10", "MFR1")}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	if got := countRows(t, db, &model.Manufacturer{}); got != 1 {
		t.Fatalf("manufacturers = %d, want 1", got)
	}
	if got := countRows(t, db, &model.ManufacturerStoreID{}); got != 1 {
		t.Fatalf("store ids = %d, want 1", got)
	}
}

func TestIngestReviewBatchIdempotentProductResolution(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	// Same product name arriving under two different manufacturers keeps
	// one product row linked to the first writer.
	if err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{reviewMessage("R1", "Laptop 15", "MFR1")}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{reviewMessage("R2", "Laptop 15", "MFR2")}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	if got := countRows(t, db, &model.Product{}); got != 1 {
		t.Fatalf("products = %d, want 1", got)
	}

	var product model.Product
	if err := db.Take(&product).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	var storeRow model.ManufacturerStoreID
	if err := db.Take(&storeRow, "store_id = ?", "MFR1").Error; err != nil {
		t.Fatalf("load store id: %v", err)
	}
	if product.ManufacturerID != storeRow.ManufacturerID {
		t.Fatalf("product manufacturer = %d, want first writer %d", product.ManufacturerID, storeRow.ManufacturerID)
	}
}

func TestIngestReviewBatchDuplicateAbortsWholeBatch(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	if err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{reviewMessage("R2", "Laptop 15", "MFR1")}); err != nil {
		t.Fatalf("seed batch: %v", err)
	}

	// Item 2 of 3 violates the unique external review id; no item of the
	// redelivered batch may remain applied.
	err := svc.IngestReviewBatch(ctx, []ingest.ReviewMessage{
		reviewMessage("R10", "Laptop 15", "MFR1"),
		reviewMessage("R2", "Laptop 15", "MFR1"),
		reviewMessage("R11", "Laptop 15", "MFR1"),
	})
	if !errors.Is(err, ingest.ErrDuplicateReview) {
		t.Fatalf("IngestReviewBatch() error = %v, want ErrDuplicateReview", err)
	}

	if got := countRows(t, db, &model.Review{}); got != 1 {
		t.Fatalf("reviews = %d, want only the seeded row", got)
	}
	var leaked int64
	if err := db.Model(&model.Review{}).Where("external_review_id IN ?", []string{"R10", "R11"}).Count(&leaked).Error; err != nil {
		t.Fatalf("count leaked: %v", err)
	}
	if leaked != 0 {
		t.Fatalf("partial batch application: %d rows leaked", leaked)
	}
}

func TestHandleReviewsMessageMalformedBody(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.HandleReviewsMessage(context.Background(), []byte("{not json"))
	if !errors.Is(err, ingest.ErrMalformed) {
		t.Fatalf("HandleReviewsMessage() error = %v, want ErrMalformed", err)
	}
	if ingest.ClassifyFailure(err) != ingest.FailureMalformed {
		t.Fatalf("malformed body not classified as malformed")
	}
}

func TestHandleReviewsMessageRoundTrip(t *testing.T) {
	svc, db := setupService(t)

	body := []byte(`[{
		"author_id": "a1",
		"author_name": "Sam",
		"author_image_url": "",
		"title": "t",
		"text": "x",
		"date": 1681084800,
		"date_text": "April 10, 2023",
		"review_id": "R1",
		"attributes": {},
		"verified_purchase": true,
		"found_helpful_count": 2,
		"is_top_positive_review": false,
		"is_top_critical_review": false,
		"images": [],
		"country_reviewed_in": "Canada",
		"region": "ca",
		"manufacturer_id": "MFR1",
		"manufacturer_name": "Acme",
		"product_name": "Laptop 15"
	}]`)

	if err := svc.HandleReviewsMessage(context.Background(), body); err != nil {
		t.Fatalf("HandleReviewsMessage() error = %v", err)
	}

	var review model.Review
	if err := db.Take(&review, "external_review_id = ?", "R1").Error; err != nil {
		t.Fatalf("load review: %v", err)
	}
	if !review.VerifiedPurchase || review.FoundHelpfulCount != 2 {
		t.Fatalf("review fields not persisted: %+v", review)
	}
	if review.Date.UTC().Unix() != 1681084800 {
		t.Fatalf("review date = %v, want epoch 1681084800", review.Date)
	}
}
