package ingest

import "time"

// EpochThreshold splits rel_timestamp interpretations: values above it are
// absolute Unix epoch seconds, values at or below it are signed day offsets
// from a report's base date. Producers depend on this exact constant; it is
// a protocol value, not a tunable.
const EpochThreshold int64 = 1_600_000_000

// ResolveRelTimestamp turns a rel_timestamp into an absolute instant.
func ResolveRelTimestamp(base time.Time, rel int64) time.Time {
	if rel > EpochThreshold {
		return time.Unix(rel, 0).UTC()
	}
	return base.UTC().AddDate(0, 0, int(rel))
}

// ReportBaseDate picks the reference point for day-offset timestamps: the
// purchase date when the report carries one, otherwise the linked review's
// date.
func ReportBaseDate(purchaseDate *time.Time, reviewDate time.Time) time.Time {
	if purchaseDate != nil {
		return purchaseDate.UTC()
	}
	return reviewDate.UTC()
}
