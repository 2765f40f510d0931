package ingestion

import (
	"encoding/json"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"revpipe/internal/domain/ingest"
	"revpipe/internal/infrastructure/persistence/sqlite/model"
	"revpipe/internal/infrastructure/persistence/sqlite/repository"
	"revpipe/internal/infrastructure/persistence/sqlite/uow"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ingest.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(
		&model.Manufacturer{},
		&model.ManufacturerStoreID{},
		&model.Product{},
		&model.Review{},
		&model.ReviewImage{},
		&model.Report{},
		&model.Issue{},
		&model.IssueImage{},
		&model.ReliabilityKeyframe{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	svc := NewService(repository.NewCatalogRepository(db), uow.NewUnitOfWork(db))
	return svc, db
}

func reviewMessage(reviewID string, productName string, manufacturerID string) ingest.ReviewMessage {
	return ingest.ReviewMessage{
		AuthorID:         "a1",
		AuthorName:       "Sam",
		Title:            "title",
		Text:             "text",
		Date:             1681084800,
		DateText:         "April 10, 2023",
		ReviewID:         reviewID,
		Attributes:       json.RawMessage(`{"Color":"Black"}`),
		Images:           []string{"https://img.example/1.jpg"},
		Region:           ingest.RegionCa,
		ManufacturerID:   manufacturerID,
		ManufacturerName: "Acme",
		ProductName:      productName,
	}
}

func reportMessage(reviewID string) ingest.ReportMessage {
	crit := 0.7
	rel := int64(14)
	interp := "linear"
	return ingest.ReportMessage{
		ReviewID:     reviewID,
		ReportWeight: 0.9,
		Issues: []ingest.IssueMessage{{
			Text:         "screen flickers",
			Criticality:  &crit,
			RelTimestamp: &rel,
			Images:       []string{"https://img.example/issue.jpg"},
		}},
		Keyframes: []ingest.KeyframeMessage{
			{RelTimestamp: 0, Sentiment: 0.5, Interp: &interp},
			{RelTimestamp: 14, Sentiment: -0.6},
		},
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
