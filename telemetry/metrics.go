package telemetry

// Histogram bucket definitions for different latency profiles
var (
	// StatementBuckets for statement execution and cursor fetches
	StatementBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1}

	// MessageSizeBuckets for message buffer lengths in bytes
	MessageSizeBuckets = []float64{16, 64, 256, 1024, 4096, 16384, 65536}

	// SegmentSizeBuckets for blob segment lengths in bytes
	SegmentSizeBuckets = []float64{64, 512, 4096, 8192, 16384, 32768}
)

// Message Codec Metrics
var (
	// ParamsBoundTotal counts parameters placed in input messages by kind
	ParamsBoundTotal CounterVec = noopCounterVec{}

	// MessagesBuiltTotal counts input messages built by result (success, failed)
	MessagesBuiltTotal CounterVec = noopCounterVec{}

	// MessageBytes measures input message buffer length
	MessageBytes Histogram = NoopStat{}

	// ConversionErrorsTotal counts rejected column conversions by requested type
	ConversionErrorsTotal CounterVec = noopCounterVec{}
)

// Engine Metrics
var (
	// StatementsTotal counts statements by operation (execute, query) and result
	StatementsTotal CounterVec = noopCounterVec{}

	// StatementDurationSeconds measures statement latency by operation
	StatementDurationSeconds HistogramVec = noopHistogramVec{}

	// RowsFetchedTotal counts rows fetched through result sets
	RowsFetchedTotal Counter = NoopStat{}

	// RowsAffected measures rows affected per executed statement
	RowsAffected Histogram = NoopStat{}

	// EngineErrorsTotal counts engine failures by boundary operation
	EngineErrorsTotal CounterVec = noopCounterVec{}

	// StatementCacheTotal counts prepared statement cache lookups by result (hit, miss)
	StatementCacheTotal CounterVec = noopCounterVec{}

	// CachedStatements tracks prepared statements held in caches
	CachedStatements Gauge = NoopStat{}
)

// Blob Metrics
var (
	// BlobSegmentsTotal counts blob segments by direction (read, write)
	BlobSegmentsTotal CounterVec = noopCounterVec{}

	// BlobBytesTotal counts blob payload bytes by direction (read, write)
	BlobBytesTotal CounterVec = noopCounterVec{}

	// BlobSegmentBytes measures segment length written to the store
	BlobSegmentBytes Histogram = NoopStat{}

	// OpenBlobs tracks blob handles currently open in the store
	OpenBlobs Gauge = NoopStat{}

	// BlobsCreatedTotal counts blobs created
	BlobsCreatedTotal Counter = NoopStat{}
)

// InitMetrics initializes all Prometheus metrics.
// Must be called after InitializeTelemetry().
func InitMetrics() {
	// Message Codec Metrics
	ParamsBoundTotal = NewCounterVec(
		"params_bound_total",
		"Parameters placed in input messages by kind",
		"kind",
	)
	MessagesBuiltTotal = NewCounterVec(
		"messages_built_total",
		"Input messages built by result",
		"result",
	)
	MessageBytes = NewHistogram(
		"message_bytes",
		"Input message buffer length in bytes",
		MessageSizeBuckets...,
	)
	ConversionErrorsTotal = NewCounterVec(
		"conversion_errors_total",
		"Rejected column conversions by requested type",
		"to",
	)

	// Engine Metrics
	StatementsTotal = NewCounterVec(
		"statements_total",
		"Statements by operation and result",
		"op", "result",
	)
	StatementDurationSeconds = NewHistogramVec(
		"statement_duration_seconds",
		"Statement duration in seconds",
		StatementBuckets,
		"op",
	)
	RowsFetchedTotal = NewCounter(
		"rows_fetched_total",
		"Rows fetched through result sets",
	)
	RowsAffected = NewHistogram(
		"rows_affected",
		"Number of rows affected per executed statement",
	)
	EngineErrorsTotal = NewCounterVec(
		"engine_errors_total",
		"Engine failures by operation",
		"op",
	)
	StatementCacheTotal = NewCounterVec(
		"statement_cache_total",
		"Prepared statement cache lookups by result",
		"result",
	)
	CachedStatements = NewGauge(
		"cached_statements",
		"Prepared statements held in caches",
	)

	// Blob Metrics
	BlobSegmentsTotal = NewCounterVec(
		"blob_segments_total",
		"Blob segments by direction",
		"direction",
	)
	BlobBytesTotal = NewCounterVec(
		"blob_bytes_total",
		"Blob payload bytes by direction",
		"direction",
	)
	BlobSegmentBytes = NewHistogram(
		"blob_segment_bytes",
		"Blob segment length in bytes",
		SegmentSizeBuckets...,
	)
	OpenBlobs = NewGauge(
		"open_blobs",
		"Blob handles currently open",
	)
	BlobsCreatedTotal = NewCounter(
		"blobs_created_total",
		"Blobs created",
	)
}
