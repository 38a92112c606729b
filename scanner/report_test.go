package scanner

import (
	"strings"
	"testing"
	"time"
)

func TestFormatMetadata(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 500, time.FixedZone("X", 3600))
	md := FileMetadata{
		Name:           "setup.exe",
		Path:           "/data/setup.exe",
		CreatedAt:      ts,
		LastAccessedAt: ts,
		LastModifiedAt: ts,
		Size:           1024,
	}
	want := "→ File name -> setup.exe\n" +
		"Full path -> /data/setup.exe\n" +
		"Creation date -> 2024-03-01T11:30:00.0000005Z\n" +
		"Last access date -> 2024-03-01T11:30:00.0000005Z\n" +
		"Last modified date -> 2024-03-01T11:30:00.0000005Z\n" +
		"Symbolic link -> false\n" +
		"Size -> 1024 bytes\n" +
		"\n"
	if got := FormatMetadata(md); got != want {
		t.Fatalf("unexpected block:\n%q\nwant:\n%q", got, want)
	}
	if md.Text() != want {
		t.Fatal("expected Text to match FormatMetadata")
	}
}

func TestFormatResult(t *testing.T) {
	if got := FormatResult(nil); got != "Files found: 0\n" {
		t.Fatalf("unexpected nil result: %q", got)
	}
	res := newResult("/data")
	res.addMatch(FileMetadata{Name: "a.exe"})
	res.addMatch(FileMetadata{Name: "b.exe"})
	got := FormatResult(res)
	if !strings.HasPrefix(got, "Files found: 2\n→ File name -> a.exe\n") {
		t.Fatalf("unexpected result text: %q", got)
	}
	if strings.Count(got, "→ File name") != 2 {
		t.Fatalf("expected two blocks, got %q", got)
	}
}

func TestFieldsIncludeEnrichment(t *testing.T) {
	md := FileMetadata{Name: "a.exe", Size: 7, Label: "exe", Hashes: map[string]string{"md5": "x"}}
	f := md.Fields()
	if f["size"] != "7" || f["label"] != "exe" || f["hashes"] != `{"md5":"x"}` {
		t.Fatalf("unexpected fields: %v", f)
	}
	if f["document"] != "" {
		t.Fatalf("expected empty document column, got %q", f["document"])
	}

	s := Summary{Root: "/data", Status: StatusEmptyDirectory, Message: StatusEmptyDirectory.Message()}
	if s.Fields()["status"] != "empty_directory" {
		t.Fatalf("unexpected summary fields: %v", s.Fields())
	}
	if !strings.Contains(s.Text(), "Files found: 0") {
		t.Fatalf("unexpected summary text: %q", s.Text())
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusOK, StatusInvalidDirectory, StatusPermissionDenied, StatusEmptyDirectory, StatusListFailed, StatusCanceled} {
		text, _ := s.MarshalText()
		var back Status
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Fatalf("round trip of %s failed: %v", s, err)
		}
	}
	var s Status
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
