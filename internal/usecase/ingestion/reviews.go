package ingestion

import (
	"context"
	"errors"
	"log/slog"

	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/domain/ingest"
	"revpipe/internal/errs"
	"revpipe/internal/ports"
)

// HandleReviewsMessage is the parsed_reviews queue handler: decode,
// validate, then apply the batch in one transaction.
func (s *Service) HandleReviewsMessage(ctx context.Context, body []byte) error {
	batch, err := ingest.DecodeReviewBatch(body)
	if err != nil {
		return err
	}
	return s.IngestReviewBatch(ctx, batch)
}

// IngestReviewBatch resolves manufacturer and product for every review in
// order and inserts the review rows. Items are applied strictly
// sequentially; any failure rolls back the whole batch.
func (s *Service) IngestReviewBatch(ctx context.Context, batch []ingest.ReviewMessage) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := s.check(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.ingestion"),
		slog.String("queue", ingest.QueueParsedReviews),
	)

	err := s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		for i, msg := range batch {
			if err := s.ingestReview(txCtx, msg); err != nil {
				return errs.Wrapf(err, "review item %d (review_id %s)", i, msg.ReviewID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Info(logCtx, "review batch ingested", slog.Int("items", len(batch)))
	return nil
}

func (s *Service) ingestReview(ctx context.Context, msg ingest.ReviewMessage) error {
	manufacturerID, err := s.repo.ResolveManufacturer(ctx, msg.ManufacturerID, msg.ManufacturerName)
	if err != nil {
		return errs.Wrap(err, "resolve manufacturer")
	}

	productID, err := s.repo.ResolveProduct(ctx, msg.ProductName, manufacturerID)
	if err != nil {
		return errs.Wrap(err, "resolve product")
	}

	_, err = s.repo.CreateReview(ctx, ports.ReviewCreate{
		ExternalID:          msg.ReviewID,
		ProductID:           productID,
		AuthorID:            msg.AuthorID,
		AuthorName:          msg.AuthorName,
		AuthorImageURL:      msg.AuthorImageURL,
		Title:               msg.Title,
		Text:                msg.Text,
		Date:                msg.PostedAt(),
		DateText:            msg.DateText,
		AttributesJSON:      msg.AttributesJSON(),
		VerifiedPurchase:    msg.VerifiedPurchase,
		FoundHelpfulCount:   msg.FoundHelpfulCount,
		IsTopPositiveReview: msg.IsTopPositiveReview,
		IsTopCriticalReview: msg.IsTopCriticalReview,
		CountryReviewedIn:   msg.CountryReviewedIn,
		Region:              string(msg.Region),
		ImageURLs:           msg.Images,
	})
	if err != nil {
		return errs.Wrap(err, "create review")
	}
	return nil
}
