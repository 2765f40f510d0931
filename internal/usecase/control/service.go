package control

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/domain/ingest"
	"revpipe/internal/errs"
	"revpipe/internal/ports"
)

// statusCacheTTL bounds how long a stale snapshot is served while the
// broker is unreachable.
const statusCacheTTL = 10 * time.Minute

// ErrPurgeNotAllowed reports a purge attempt against a queue the operator
// surface does not own.
var ErrPurgeNotAllowed = errors.New("queue cannot be purged")

// purgeableQueues are the only queues the operator surface may drain:
// work-item queues feeding the fleet, never the ingestion queues this
// process consumes.
var purgeableQueues = map[string]bool{
	ingest.QueueParse:     true,
	ingest.QueueToAnalyze: true,
}

// QueueSnapshot is a queue status as served to operators. Live reports
// whether the numbers came from the broker or from the last cached
// observation.
type QueueSnapshot struct {
	Queue      string            `json:"queue"`
	Status     ports.QueueStatus `json:"status"`
	Live       bool              `json:"live"`
	ObservedAt time.Time         `json:"observedAt"`
}

// Service is the operator control surface: submit scrape work, steer the
// crawler fleet, and inspect queue depths.
type Service struct {
	products  ports.ProductQueue
	crawler   ports.CrawlerControl
	inspector ports.QueueInspector
	cache     ports.Cache
}

func NewService(products ports.ProductQueue, crawler ports.CrawlerControl, inspector ports.QueueInspector, cache ports.Cache) *Service {
	return &Service{
		products:  products,
		crawler:   crawler,
		inspector: inspector,
		cache:     cache,
	}
}

func (s *Service) check() error {
	if s.products == nil {
		return errors.New("product queue is required")
	}
	if s.crawler == nil {
		return errors.New("crawler control is required")
	}
	if s.inspector == nil {
		return errors.New("queue inspector is required")
	}
	if s.cache == nil {
		return errors.New("cache is required")
	}
	return nil
}

// SubmitProductLines parses pasted product URLs, one per line, and
// publishes a scrape work item for each. Blank lines are skipped; a line
// that is not a recognizable product URL aborts the call before anything
// later in the input is published. Returns how many items were published.
func (s *Service) SubmitProductLines(ctx context.Context, lines []string) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := s.check(); err != nil {
		return 0, err
	}

	products := make([]ingest.ProductDescriptor, 0, len(lines))
	for i, line := range lines {
		if isBlank(line) {
			continue
		}
		product, err := ingest.ParseProductLink(line)
		if err != nil {
			return 0, errs.Wrapf(err, "line %d", i+1)
		}
		products = append(products, product)
	}

	submitted := 0
	for _, product := range products {
		if err := s.products.Submit(ctx, product); err != nil {
			return submitted, errs.Wrapf(err, "submit product %s", product.ID)
		}
		submitted++
	}

	logging.Info(ctx, "products submitted for scraping",
		slog.String("component", "usecase.control"),
		slog.Int("count", submitted),
	)
	return submitted, nil
}

// SetCrawlTarget broadcasts a set command pointing every listening crawler
// at the given category URL.
func (s *Service) SetCrawlTarget(ctx context.Context, url string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := s.check(); err != nil {
		return err
	}
	if url == "" {
		return errors.New("url is required")
	}

	if err := s.crawler.Send(ctx, ingest.NewSetCommand(url)); err != nil {
		return errs.Wrap(err, "broadcast set command")
	}
	logging.Info(ctx, "crawl target set",
		slog.String("component", "usecase.control"),
		slog.String("url", url),
	)
	return nil
}

// CancelCrawl broadcasts a cancel command to every listening crawler.
func (s *Service) CancelCrawl(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := s.check(); err != nil {
		return err
	}

	if err := s.crawler.Send(ctx, ingest.NewCancelCommand()); err != nil {
		return errs.Wrap(err, "broadcast cancel command")
	}
	logging.Info(ctx, "crawl cancelled", slog.String("component", "usecase.control"))
	return nil
}

// QueueStatus reads the current depth of one queue. A queue nobody has
// declared yet reads as empty. If the broker is unreachable the last cached
// snapshot is served with Live=false so status pages degrade instead of
// erroring.
func (s *Service) QueueStatus(ctx context.Context, queue string) (QueueSnapshot, error) {
	if ctx == nil {
		return QueueSnapshot{}, errors.New("context is required")
	}
	if err := s.check(); err != nil {
		return QueueSnapshot{}, err
	}
	if queue == "" {
		return QueueSnapshot{}, errors.New("queue name is required")
	}

	status, err := s.inspector.Status(ctx, queue)
	switch {
	case err == nil:
	case errors.Is(err, ports.ErrQueueNotFound):
		// Nobody has declared it yet, which for operators means empty.
		status = ports.QueueStatus{}
	default:
		return s.cachedStatus(ctx, queue, err)
	}

	snapshot := QueueSnapshot{
		Queue:      queue,
		Status:     status,
		Live:       true,
		ObservedAt: time.Now().UTC(),
	}
	s.storeSnapshot(ctx, snapshot)
	return snapshot, nil
}

// PurgeQueue drains a work-item queue. Only queues this process does not
// consume may be purged.
func (s *Service) PurgeQueue(ctx context.Context, queue string) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := s.check(); err != nil {
		return 0, err
	}
	if !purgeableQueues[queue] {
		return 0, errs.Wrapf(ErrPurgeNotAllowed, "queue %q", queue)
	}

	purged, err := s.inspector.Purge(ctx, queue)
	if err != nil {
		return 0, errs.Wrapf(err, "purge queue %q", queue)
	}
	logging.Info(ctx, "queue purged",
		slog.String("component", "usecase.control"),
		slog.String("queue", queue),
		slog.Int("messages", purged),
	)
	return purged, nil
}

func (s *Service) cachedStatus(ctx context.Context, queue string, cause error) (QueueSnapshot, error) {
	raw, found, cacheErr := s.cache.Get(ctx, statusCacheKey(queue))
	if cacheErr != nil || !found {
		return QueueSnapshot{}, errs.Wrapf(cause, "queue %q status", queue)
	}

	var snapshot QueueSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return QueueSnapshot{}, errs.Wrapf(cause, "queue %q status", queue)
	}

	snapshot.Live = false
	logging.Warn(ctx, "serving cached queue status",
		slog.String("component", "usecase.control"),
		slog.String("queue", queue),
		slog.Time("observed_at", snapshot.ObservedAt),
		slog.Any("err", errs.Loggable(cause)),
	)
	return snapshot, nil
}

func (s *Service) storeSnapshot(ctx context.Context, snapshot QueueSnapshot) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statusCacheKey(snapshot.Queue), string(raw), statusCacheTTL); err != nil {
		logging.Warn(ctx, "cache queue status failed",
			slog.String("component", "usecase.control"),
			slog.String("queue", snapshot.Queue),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func statusCacheKey(queue string) string {
	return "queue_status:" + queue
}

func isBlank(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}
