package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"revpipe/internal/domain/ingest"
	"revpipe/internal/errs"
	"revpipe/internal/infrastructure/persistence/sqlite/model"
	"revpipe/internal/ports"
)

type CatalogRepository struct {
	db *gorm.DB
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// ResolveManufacturer returns the canonical manufacturer for a store
// identifier, creating manufacturer and store-id rows when the identifier is
// new. The store-id insert goes through ON CONFLICT DO NOTHING, so two
// concurrent resolutions of the same identifier converge on one row instead
// of racing a read-then-write pair.
func (r *CatalogRepository) ResolveManufacturer(ctx context.Context, storeID string, name string) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}
	if storeID == "" {
		return 0, errors.New("store id is required")
	}

	var existing model.ManufacturerStoreID
	err = db.Where("store_id = ?", storeID).Take(&existing).Error
	if err == nil {
		return existing.ManufacturerID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, errs.Wrap(err, "query manufacturer store id")
	}

	manufacturer := model.Manufacturer{Name: name}
	if err := db.Create(&manufacturer).Error; err != nil {
		return 0, errs.Wrap(err, "insert manufacturer")
	}

	row := model.ManufacturerStoreID{
		StoreID:        storeID,
		ManufacturerID: manufacturer.ManufacturerID,
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return 0, errs.Wrap(res.Error, "insert manufacturer store id")
	}
	if res.RowsAffected == 0 {
		// Lost the race: another writer claimed the store id. Drop our
		// manufacturer row and reuse theirs.
		if err := db.Delete(&model.Manufacturer{}, "manufacturer_id = ?", manufacturer.ManufacturerID).Error; err != nil {
			return 0, errs.Wrap(err, "remove losing manufacturer")
		}
		if err := db.Where("store_id = ?", storeID).Take(&existing).Error; err != nil {
			return 0, errs.Wrap(err, "re-query manufacturer store id")
		}
		return existing.ManufacturerID, nil
	}

	return manufacturer.ManufacturerID, nil
}

// ResolveProduct returns the product row for a name, creating it under the
// given manufacturer when absent. On reuse the existing manufacturer link is
// kept: first writer wins.
func (r *CatalogRepository) ResolveProduct(ctx context.Context, name string, manufacturerID uint64) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}
	if name == "" {
		return 0, errors.New("product name is required")
	}

	product := model.Product{
		Name:           name,
		ManufacturerID: manufacturerID,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&product)
	if res.Error != nil {
		return 0, errs.Wrap(res.Error, "insert product")
	}
	if res.RowsAffected > 0 {
		return product.ProductID, nil
	}

	var existing model.Product
	if err := db.Where("name = ?", name).Take(&existing).Error; err != nil {
		return 0, errs.Wrap(err, "query product by name")
	}
	return existing.ProductID, nil
}

// CreateReview inserts a review row with nested image rows. A previously
// ingested external id yields ingest.ErrDuplicateReview.
func (r *CatalogRepository) CreateReview(ctx context.Context, input ports.ReviewCreate) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	row := model.Review{
		ExternalID:          input.ExternalID,
		ProductID:           input.ProductID,
		AuthorID:            input.AuthorID,
		AuthorName:          input.AuthorName,
		AuthorImageURL:      input.AuthorImageURL,
		Title:               input.Title,
		Text:                input.Text,
		Date:                input.Date,
		DateText:            input.DateText,
		AttributesJSON:      input.AttributesJSON,
		VerifiedPurchase:    input.VerifiedPurchase,
		FoundHelpfulCount:   input.FoundHelpfulCount,
		IsTopPositiveReview: input.IsTopPositiveReview,
		IsTopCriticalReview: input.IsTopCriticalReview,
		CountryReviewedIn:   input.CountryReviewedIn,
		Region:              input.Region,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_review_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return 0, errs.Wrap(res.Error, "insert review")
	}
	if res.RowsAffected == 0 {
		return 0, errs.Wrapf(ingest.ErrDuplicateReview, "external review id %q", input.ExternalID)
	}

	if len(input.ImageURLs) > 0 {
		images := make([]model.ReviewImage, 0, len(input.ImageURLs))
		for _, url := range input.ImageURLs {
			images = append(images, model.ReviewImage{
				ReviewID: row.ReviewID,
				ImageURL: url,
			})
		}
		if err := db.Create(&images).Error; err != nil {
			return 0, errs.Wrap(err, "insert review images")
		}
	}

	return row.ReviewID, nil
}

// GetReviewByExternalID resolves the row a report must link to. Absence maps
// to ingest.ErrReviewNotFound so callers can treat it as retryable.
func (r *CatalogRepository) GetReviewByExternalID(ctx context.Context, externalID string) (ports.ReviewRef, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ReviewRef{}, err
	}

	var row model.Review
	if err := db.Where("external_review_id = ?", externalID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ReviewRef{}, errs.Wrapf(ingest.ErrReviewNotFound, "external review id %q", externalID)
		}
		return ports.ReviewRef{}, errs.Wrap(err, "query review by external id")
	}

	return ports.ReviewRef{
		ReviewID:   row.ReviewID,
		ExternalID: row.ExternalID,
		ProductID:  row.ProductID,
		Date:       row.Date,
	}, nil
}

// CreateReport inserts a report with its nested issues, issue images and
// reliability keyframes.
func (r *CatalogRepository) CreateReport(ctx context.Context, input ports.ReportCreate) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	report := model.Report{
		ReviewID:     input.ReviewID,
		ReportWeight: input.ReportWeight,
		PurchaseDate: input.PurchaseDate,
	}
	if err := db.Create(&report).Error; err != nil {
		return 0, errs.Wrap(err, "insert report")
	}

	for _, in := range input.Issues {
		issue := model.Issue{
			ReportID:       report.ReportID,
			Text:           in.Text,
			Classification: in.Classification,
			Criticality:    in.Criticality,
			RelTimestamp:   in.RelTimestamp,
			Frequency:      in.Frequency,
			Resolution:     in.Resolution,
		}
		if err := db.Create(&issue).Error; err != nil {
			return 0, errs.Wrap(err, "insert issue")
		}

		if len(in.ImageURLs) > 0 {
			images := make([]model.IssueImage, 0, len(in.ImageURLs))
			for _, url := range in.ImageURLs {
				images = append(images, model.IssueImage{
					IssueID:  issue.IssueID,
					ImageURL: url,
				})
			}
			if err := db.Create(&images).Error; err != nil {
				return 0, errs.Wrap(err, "insert issue images")
			}
		}
	}

	if len(input.Keyframes) > 0 {
		keyframes := make([]model.ReliabilityKeyframe, 0, len(input.Keyframes))
		for _, in := range input.Keyframes {
			keyframes = append(keyframes, model.ReliabilityKeyframe{
				ReportID:     report.ReportID,
				RelTimestamp: in.RelTimestamp,
				Sentiment:    in.Sentiment,
				Interp:       in.Interp,
			})
		}
		if err := db.Create(&keyframes).Error; err != nil {
			return 0, errs.Wrap(err, "insert reliability keyframes")
		}
	}

	return report.ReportID, nil
}
