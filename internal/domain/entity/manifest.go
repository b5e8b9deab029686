package entity

// ErrorKind classifies a per-object failure recorded in the manifest.
type ErrorKind string

const (
	ErrorKindFetch    ErrorKind = "fetch"
	ErrorKindDecode   ErrorKind = "decode"
	ErrorKindCanceled ErrorKind = "canceled"
)

// FetchFailure records one object the pipeline could not ingest. The
// pipeline continues past these; they only reduce coverage.
type FetchFailure struct {
	Object  ObjectRef `json:"object"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// IngestManifest is the per-run observability record returned alongside the
// CanonicalTable. Anything that would make the table silently wrong (skipped
// dedupe, dropped files) must surface here.
type IngestManifest struct {
	TotalObjectsListed          int            `json:"total_objects_listed"`
	ObjectsAfterPartitionFilter int            `json:"objects_after_partition_filter"`
	CacheHits                   int            `json:"cache_hits"`
	CacheWrites                 int            `json:"cache_writes"`
	FreshUnwrittenDownloads     int            `json:"fresh_unwritten_downloads"`
	FetchFailures               []FetchFailure `json:"fetch_failures,omitempty"`
	DuplicatesRemoved           int            `json:"duplicates_removed"`
	SplitParentsSuppressed      int            `json:"split_parents_suppressed,omitempty"`
	FinalRecordCount            int            `json:"final_record_count"`
	Warnings                    []string       `json:"warnings,omitempty"`
}

// Warn appends a non-fatal observability warning.
func (m *IngestManifest) Warn(message string) {
	m.Warnings = append(m.Warnings, message)
}
