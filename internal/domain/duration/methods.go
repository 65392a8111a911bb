package duration

// Method tags record the provenance of a stored duration. They are set
// atomically with every duration write and never drive business logic beyond
// the suspicious-value check.
const (
	MethodFFProbe     = "ffprobe"
	MethodFrameScan   = "frame-scan"
	MethodMetadataTag = "metadata-tag"
	MethodFileSize    = "file-size-estimation"
	MethodFallback    = "fallback"
	MethodDefault     = "default"
	MethodManual      = "manual-update"
	MethodLive        = "live-measurement"
	MethodBulkFix     = "bulk-fix"
)
