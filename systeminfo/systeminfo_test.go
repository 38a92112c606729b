package systeminfo

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"sigscan/logger"
)

func init() {
	logger.Init("error")
}

func TestGetHost(t *testing.T) {
	h := GetHost(context.Background())
	if h == nil {
		t.Fatal("nil host")
	}
	if h.OS != runtime.GOOS {
		t.Fatalf("expected OS %s, got %s", runtime.GOOS, h.OS)
	}
	if h.Arch == "" {
		t.Fatal("expected architecture to be set")
	}
}

func TestGatherNetworkInterfaces(t *testing.T) {
	h := &Host{}
	if err := gatherNetworkInterfaces(h); err != nil {
		t.Fatalf("gather: %v", err)
	}
}

func TestHostText(t *testing.T) {
	h := &Host{Hostname: "box", OS: "linux", Arch: "amd64", PlatformVersion: "12"}
	got := h.Text()
	if !strings.HasPrefix(got, "# host box") || !strings.HasSuffix(got, "\n") {
		t.Fatalf("unexpected text: %q", got)
	}
}
