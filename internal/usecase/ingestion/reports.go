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

// HandleReportsMessage is the reports queue handler.
func (s *Service) HandleReportsMessage(ctx context.Context, body []byte) error {
	batch, err := ingest.DecodeReportBatch(body)
	if err != nil {
		return err
	}
	return s.IngestReportBatch(ctx, batch)
}

// IngestReportBatch links each report to its already-ingested review and
// inserts the report graph. A missing review aborts the batch with
// ingest.ErrReviewNotFound: the analyzer may outrun the review consumer, so
// the message must stay retryable until the review lands.
func (s *Service) IngestReportBatch(ctx context.Context, batch []ingest.ReportMessage) error {
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
		slog.String("queue", ingest.QueueReports),
	)

	err := s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		for i, msg := range batch {
			if err := s.ingestReport(txCtx, msg); err != nil {
				return errs.Wrapf(err, "report item %d (review_id %s)", i, msg.ReviewID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Info(logCtx, "report batch ingested", slog.Int("items", len(batch)))
	return nil
}

func (s *Service) ingestReport(ctx context.Context, msg ingest.ReportMessage) error {
	review, err := s.repo.GetReviewByExternalID(ctx, msg.ReviewID)
	if err != nil {
		return errs.Wrap(err, "resolve review")
	}

	issues := make([]ports.IssueCreate, 0, len(msg.Issues))
	base := ingest.ReportBaseDate(nil, review.Date)
	for _, in := range msg.Issues {
		if in.RelTimestamp != nil {
			logging.Info(ctx, "issue located on timeline",
				slog.Int64("rel_timestamp", *in.RelTimestamp),
				slog.Time("occurred_at", ingest.ResolveRelTimestamp(base, *in.RelTimestamp)),
			)
		}
		issues = append(issues, ports.IssueCreate{
			Text:           in.Text,
			Classification: in.Classification,
			Criticality:    in.Criticality,
			RelTimestamp:   in.RelTimestamp,
			Frequency:      in.Frequency,
			Resolution:     in.Resolution,
			ImageURLs:      in.Images,
		})
	}

	keyframes := make([]ports.KeyframeCreate, 0, len(msg.Keyframes))
	for _, in := range msg.Keyframes {
		keyframes = append(keyframes, ports.KeyframeCreate{
			RelTimestamp: in.RelTimestamp,
			Sentiment:    in.Sentiment,
			Interp:       in.Interp,
		})
	}

	reviewID := review.ReviewID
	_, err = s.repo.CreateReport(ctx, ports.ReportCreate{
		ReviewID:     &reviewID,
		ReportWeight: msg.ReportWeight,
		Issues:       issues,
		Keyframes:    keyframes,
	})
	if err != nil {
		return errs.Wrap(err, "create report")
	}
	return nil
}
