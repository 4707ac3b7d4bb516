package objectstore

import (
	"fmt"
	"time"
)

// RawSnapshotKey builds the date-partitioned object name for one day's raw
// extract. Partitioning follows the report date; the upload timestamp
// keeps reruns of the same day from overwriting each other.
func RawSnapshotKey(network, country string, reportDate, now time.Time) string {
	return fmt.Sprintf(
		"raw-data/affiliate/%s/year=%d/month=%d/day=%d/%s_%s_transactions_%s_%d.json",
		network,
		reportDate.Year(), int(reportDate.Month()), reportDate.Day(),
		network, country,
		reportDate.Format("2006-01-02"),
		now.Unix(),
	)
}

// TransformedReportKey builds the object name for a gzip NDJSON load file.
func TransformedReportKey(network, country, reportType string, reportDate, now time.Time) string {
	return fmt.Sprintf(
		"transformed-data/affiliate/%s/year=%d/month=%d/day=%d/%s_%s_%s_%s_%d.json.gz",
		network,
		reportDate.Year(), int(reportDate.Month()), reportDate.Day(),
		network, country, reportType,
		reportDate.Format("2006-01-02"),
		now.Unix(),
	)
}

// ClassificationKey builds the object name for a classifier load file.
func ClassificationKey(network string, now time.Time) string {
	return fmt.Sprintf(
		"transformed-data/affiliate/%s/classifications/year=%d/month=%d/day=%d/%s_classifications_%d.json.gz",
		network,
		now.Year(), int(now.Month()), now.Day(),
		network,
		now.Unix(),
	)
}
