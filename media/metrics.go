package media

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogpen_media_uploads_total",
			Help: "Media uploads by kind and final status",
		},
		[]string{"kind", "status"},
	)

	uploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogpen_media_upload_duration_seconds",
			Help:    "Time spent in the storage backend per upload",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"kind"},
	)
)

// statusRejected labels uploads that failed validation before any I/O.
const statusRejected = "rejected"
