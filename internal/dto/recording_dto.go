package dto

type ReviewRequest struct {
	Decision string `json:"decision"`
}

type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

type CleanupResult struct {
	Deleted int64 `json:"deleted"`
}

type UploadFailure struct {
	RecordingID string `json:"recording_id"`
	Error       string `json:"error"`
}

type UploadResult struct {
	Uploaded int             `json:"uploaded"`
	Failed   []UploadFailure `json:"failed"`
}
