package scanner

import (
	"fmt"
	"time"

	"sigscan/signature"
)

// Status is the outcome of a scan.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidDirectory
	StatusPermissionDenied
	StatusEmptyDirectory
	StatusListFailed
	StatusCanceled
)

var statusNames = map[Status]string{
	StatusOK:               "ok",
	StatusInvalidDirectory: "invalid_directory",
	StatusPermissionDenied: "permission_denied",
	StatusEmptyDirectory:   "empty_directory",
	StatusListFailed:       "list_failed",
	StatusCanceled:         "canceled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Message returns a sentence suitable for showing to a user.
func (s Status) Message() string {
	switch s {
	case StatusOK:
		return "Scan completed"
	case StatusInvalidDirectory:
		return "The directory is invalid"
	case StatusPermissionDenied:
		return "Insufficient permissions to read the directory"
	case StatusEmptyDirectory:
		return "The selected directory is empty"
	case StatusListFailed:
		return "The directory could not be listed"
	case StatusCanceled:
		return "Scan canceled"
	default:
		return s.String()
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown scan status %q", text)
}

// FileMetadata describes a matched file. It is captured once, when the file is
// classified, and not modified afterwards.
type FileMetadata struct {
	Name           string                 `json:"name"`
	Path           string                 `json:"path"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	LastModifiedAt time.Time              `json:"last_modified_at"`
	IsSymlink      bool                   `json:"is_symlink"`
	Size           uint64                 `json:"size"`
	Label          string                 `json:"label,omitempty"`
	Signature      string                 `json:"signature,omitempty"`
	MimeType       string                 `json:"mime_type,omitempty"`
	FileID         string                 `json:"file_id,omitempty"`
	Hashes         map[string]string      `json:"hashes,omitempty"`
	FuzzyHashes    map[string]string      `json:"fuzzy_hashes,omitempty"`
	Document       map[string]interface{} `json:"document,omitempty"`
}

// Fault records an entry that could not be processed during traversal.
type Fault struct {
	Path string `json:"path"`
	Op   string `json:"op"`
	Err  string `json:"error"`
}

// ScanResult is the aggregate outcome of one Scan call. MatchCount always
// equals len(Metadata).
type ScanResult struct {
	Root         string         `json:"root"`
	Status       Status         `json:"status"`
	MatchCount   uint           `json:"match_count"`
	FilesScanned uint64         `json:"files_scanned"`
	Metadata     []FileMetadata `json:"metadata"`
	Faults       []Fault        `json:"faults,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
}

func newResult(root string) *ScanResult {
	return &ScanResult{
		Root:      root,
		Metadata:  []FileMetadata{},
		StartedAt: time.Now(),
	}
}

func (r *ScanResult) addMatch(md FileMetadata) {
	r.Metadata = append(r.Metadata, md)
	r.MatchCount++
}

func (r *ScanResult) addFault(path, op string, err error) {
	r.Faults = append(r.Faults, Fault{Path: path, Op: op, Err: err.Error()})
}

func (r *ScanResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary is the per-root record written to the output.
type Summary struct {
	Root         string        `json:"root"`
	Status       Status        `json:"status"`
	Message      string        `json:"message"`
	MatchCount   uint          `json:"match_count"`
	FilesScanned uint64        `json:"files_scanned"`
	FaultCount   int           `json:"fault_count"`
	Duration     time.Duration `json:"duration_ns"`
}

func (r *ScanResult) Summary() Summary {
	return Summary{
		Root:         r.Root,
		Status:       r.Status,
		Message:      r.Status.Message(),
		MatchCount:   r.MatchCount,
		FilesScanned: r.FilesScanned,
		FaultCount:   len(r.Faults),
		Duration:     r.Duration(),
	}
}

func metadataFromMatch(m signature.Match) FileMetadata {
	return FileMetadata{Label: m.Label, Signature: m.Signature}
}
