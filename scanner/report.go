package scanner

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatMetadata renders the fixed text block for one matched file, followed
// by a blank line.
func FormatMetadata(md FileMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "→ File name -> %s\n", md.Name)
	fmt.Fprintf(&b, "Full path -> %s\n", md.Path)
	fmt.Fprintf(&b, "Creation date -> %s\n", formatTime(md.CreatedAt))
	fmt.Fprintf(&b, "Last access date -> %s\n", formatTime(md.LastAccessedAt))
	fmt.Fprintf(&b, "Last modified date -> %s\n", formatTime(md.LastModifiedAt))
	fmt.Fprintf(&b, "Symbolic link -> %t\n", md.IsSymlink)
	fmt.Fprintf(&b, "Size -> %d bytes\n", md.Size)
	b.WriteString("\n")
	return b.String()
}

// FormatResult renders the match count followed by every metadata block.
func FormatResult(r *ScanResult) string {
	if r == nil {
		return "Files found: 0\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Files found: %d\n", r.MatchCount)
	for _, md := range r.Metadata {
		b.WriteString(FormatMetadata(md))
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (md FileMetadata) Text() string {
	return FormatMetadata(md)
}

func (md FileMetadata) Fields() map[string]string {
	return map[string]string{
		"label":            md.Label,
		"signature":        md.Signature,
		"name":             md.Name,
		"path":             md.Path,
		"size":             strconv.FormatUint(md.Size, 10),
		"created_at":       formatTime(md.CreatedAt),
		"last_accessed_at": formatTime(md.LastAccessedAt),
		"last_modified_at": formatTime(md.LastModifiedAt),
		"is_symlink":       strconv.FormatBool(md.IsSymlink),
		"mime_type":        md.MimeType,
		"file_id":          md.FileID,
		"hashes":           jsonField(md.Hashes),
		"fuzzy_hashes":     jsonField(md.FuzzyHashes),
		"document":         jsonField(md.Document),
	}
}

func (s Summary) Text() string {
	return fmt.Sprintf("Scan of %s: %s\nFiles found: %d\n", s.Root, s.Message, s.MatchCount)
}

func (s Summary) Fields() map[string]string {
	return map[string]string{
		"root":          s.Root,
		"status":        s.Status.String(),
		"message":       s.Message,
		"files_scanned": strconv.FormatUint(s.FilesScanned, 10),
		"match_count":   strconv.FormatUint(uint64(s.MatchCount), 10),
		"fault_count":   strconv.Itoa(s.FaultCount),
	}
}

func (f Fault) Text() string {
	return fmt.Sprintf("! %s (%s): %s\n", f.Path, f.Op, f.Err)
}

func (f Fault) Fields() map[string]string {
	return map[string]string{
		"path":  f.Path,
		"op":    f.Op,
		"error": f.Err,
	}
}

func jsonField(v interface{}) string {
	switch m := v.(type) {
	case map[string]string:
		if len(m) == 0 {
			return ""
		}
	case map[string]interface{}:
		if len(m) == 0 {
			return ""
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
