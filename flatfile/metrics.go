package flatfile

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

var (
	metricsSet = metrics.NewSet()

	savesTotal       = metricsSet.NewCounter("flatfile_saves_total")
	saveErrorsTotal  = metricsSet.NewCounter("flatfile_save_errors_total")
	saveSkippedTotal = metricsSet.NewCounter("flatfile_save_skipped_entries_total")
	loadsTotal       = metricsSet.NewCounter("flatfile_loads_total")
	loadErrorsTotal  = metricsSet.NewCounter("flatfile_load_errors_total")
	loadSkippedTotal = metricsSet.NewCounter("flatfile_load_skipped_lines_total")
	saveDuration     = metricsSet.NewHistogram("flatfile_save_duration_seconds")
	loadDuration     = metricsSet.NewHistogram("flatfile_load_duration_seconds")
)

// WriteMetrics writes save/load metrics to w in Prometheus text format
func WriteMetrics(w io.Writer) {
	metricsSet.WritePrometheus(w)
}
