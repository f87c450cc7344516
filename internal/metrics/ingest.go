package metrics

import "github.com/prometheus/client_golang/prometheus"

// UploadSizeBytes observes accepted upload sizes.
var UploadSizeBytes = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "docshelf",
		Name:      "upload_size_bytes",
		Help:      "Size of accepted document uploads in bytes",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB .. 16MiB
	},
)

// RegisterIngestMetrics registers ingestion metrics explicitly (no init()).
func RegisterIngestMetrics() {
	prometheus.MustRegister(UploadSizeBytes)
}
