package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatSignaturesSorted(t *testing.T) {
	got := FormatSignatures(map[string]string{"png": "89504E47", "exe": "4D5A"})
	want := "exe -> 4D5A\npng -> 89504E47\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if FormatSignatures(nil) != "" {
		t.Fatal("expected empty output for no signatures")
	}
}

func TestRenderSignatureTable(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSignatureTable(&buf, map[string]string{"png": "89504E47", "exe": "4D5A"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"exe", "4D5A", "png", "89504E47"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if strings.Index(out, "exe") > strings.Index(out, "png") {
		t.Fatalf("expected rows sorted by label:\n%s", out)
	}
}
