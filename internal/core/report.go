package core

// UploadStatus is the per-entry outcome of the upload stage.
type UploadStatus int

const (
	// UploadSucceeded means the server accepted the request.
	UploadSucceeded UploadStatus = iota
	// UploadRejected means the server returned a 5xx for the entry's
	// content. Retrying cannot fix a content-level rejection, so the
	// entry is skipped and the run continues.
	UploadRejected
	// UploadExhausted means every retry attempt failed at the transport
	// level. Remaining entries are not attempted.
	UploadExhausted
)

func (s UploadStatus) String() string {
	switch s {
	case UploadSucceeded:
		return "succeeded"
	case UploadRejected:
		return "rejected"
	case UploadExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// UploadResult records the outcome for one staged entry.
type UploadResult struct {
	Entry  StagedEntry
	Status UploadStatus
}

// UploadReport aggregates per-entry outcomes for a run.
type UploadReport struct {
	Results []UploadResult
}

// Count returns how many entries finished with the given status.
func (r *UploadReport) Count(status UploadStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Rejected returns the paths of entries the server refused to process.
func (r *UploadReport) Rejected() []string {
	var paths []string
	for _, res := range r.Results {
		if res.Status == UploadRejected {
			paths = append(paths, res.Entry.Path)
		}
	}
	return paths
}

// Exhausted reports whether the run hit sustained transport failure.
func (r *UploadReport) Exhausted() bool {
	for _, res := range r.Results {
		if res.Status == UploadExhausted {
			return true
		}
	}
	return false
}
