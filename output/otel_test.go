package output

import (
	"testing"

	"sigscan/config"

	otelLog "go.opentelemetry.io/otel/log"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

func findAttr(kvs []otelLog.KeyValue, key string) (otelLog.Value, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return otelLog.Value{}, false
}

func findAttrIndex(kvs []otelLog.KeyValue, key string) int {
	for i, kv := range kvs {
		if kv.Key == key {
			return i
		}
	}
	return -1
}

func TestResolveOtelEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "https://logs.example.test/v1/logs")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://fallback.example.test")

	cfg := &config.Config{OtelEndpoint: "  https://explicit.example.test  ", OtelFromEnv: true}
	if got := resolveOtelEndpoint(cfg); got != "https://explicit.example.test" {
		t.Fatalf("expected explicit endpoint, got %q", got)
	}

	cfg = &config.Config{OtelFromEnv: true}
	if got := resolveOtelEndpoint(cfg); got != "https://logs.example.test/v1/logs" {
		t.Fatalf("expected logs env endpoint, got %q", got)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "")
	if got := resolveOtelEndpoint(cfg); got != "https://fallback.example.test" {
		t.Fatalf("expected fallback env endpoint, got %q", got)
	}

	cfg = &config.Config{OtelFromEnv: false}
	if got := resolveOtelEndpoint(cfg); got != "" {
		t.Fatalf("expected empty endpoint when env fallback disabled, got %q", got)
	}
}

func TestSanitizePayloadStripsPaths(t *testing.T) {
	payload := map[string]interface{}{
		"path":  "/tmp/secret.exe",
		"name":  "secret.exe",
		"label": "exe",
	}
	sanitized := sanitizePayload("match", payload, otelPolicy{})
	if _, ok := sanitized["path"]; ok {
		t.Fatal("expected path to be stripped")
	}
	if sanitized["label"] != "exe" {
		t.Fatalf("expected label to survive, got %#v", sanitized["label"])
	}
	if _, ok := payload["path"]; !ok {
		t.Fatal("expected original payload to remain unchanged")
	}

	scan := sanitizePayload("scan", map[string]interface{}{"root": "/tmp", "status": "ok"}, otelPolicy{})
	if _, ok := scan["root"]; ok {
		t.Fatal("expected scan root to be stripped")
	}

	kept := sanitizePayload("match", payload, otelPolicy{includePaths: true})
	if kept["path"] != "/tmp/secret.exe" {
		t.Fatal("expected path when paths are enabled")
	}
}

func TestSemanticAttributesMatch(t *testing.T) {
	payload := map[string]interface{}{
		"path":      "/tmp/dir/setup.exe",
		"size":      float64(42),
		"label":     "exe",
		"signature": "4D5A",
		"hashes":    map[string]interface{}{"sha256": "abc123"},
	}

	attrs := semanticAttributes("match", payload, otelPolicy{includePaths: true})
	if value, ok := findAttr(attrs, string(semconv.FilePathKey)); !ok || value.AsString() != "/tmp/dir/setup.exe" {
		t.Fatalf("expected file path semantic attribute, got %#v", value)
	}
	if value, ok := findAttr(attrs, string(semconv.FileNameKey)); !ok || value.AsString() != "setup.exe" {
		t.Fatalf("expected file name semantic attribute, got %#v", value)
	}
	if value, ok := findAttr(attrs, string(semconv.FileSizeKey)); !ok || value.AsInt64() != 42 {
		t.Fatalf("expected file size semantic attribute, got %#v", value)
	}
	if value, ok := findAttr(attrs, "sigscan.match.label"); !ok || value.AsString() != "exe" {
		t.Fatalf("expected label attribute, got %#v", value)
	}
	if _, ok := findAttr(attrs, "sigscan.file.hash.sha256"); !ok {
		t.Fatal("expected hash semantic attribute")
	}

	attrsNoPaths := semanticAttributes("match", payload, otelPolicy{})
	if _, ok := findAttr(attrsNoPaths, string(semconv.FilePathKey)); ok {
		t.Fatal("did not expect file path semantic attribute when paths are disabled")
	}
}

func TestSemanticAttributesScanAndHost(t *testing.T) {
	scan := semanticAttributes("scan", map[string]interface{}{
		"status":        "ok",
		"match_count":   float64(3),
		"files_scanned": float64(10),
	}, otelPolicy{})
	if value, ok := findAttr(scan, "sigscan.scan.status"); !ok || value.AsString() != "ok" {
		t.Fatalf("expected scan status attribute, got %#v", value)
	}
	if value, ok := findAttr(scan, "sigscan.scan.match_count"); !ok || value.AsInt64() != 3 {
		t.Fatalf("expected match count attribute, got %#v", value)
	}

	host := semanticAttributes("host", map[string]interface{}{"hostname": "box", "os": "linux"}, otelPolicy{})
	if value, ok := findAttr(host, string(semconv.HostNameKey)); !ok || value.AsString() != "box" {
		t.Fatalf("expected host name attribute, got %#v", value)
	}
}

func TestPayloadToMapFromStruct(t *testing.T) {
	payload := Metrics{
		StartTime:    "2026-02-18T00:00:00Z",
		RootsScanned: 2,
		FilesScanned: 7,
		Matches:      3,
	}
	data := payloadToMap(payload)
	if data == nil {
		t.Fatal("expected payloadToMap to decode struct payload")
	}
	if got := getStringField(data, "start_time"); got != payload.StartTime {
		t.Fatalf("expected start_time=%q, got %q", payload.StartTime, got)
	}
	if got, ok := getInt64Field(data, "files_scanned"); !ok || got != 7 {
		t.Fatalf("expected files_scanned=7, got %d (ok=%v)", got, ok)
	}

	attrs := semanticAttributes("metrics", data, otelPolicy{})
	if value, ok := findAttr(attrs, "sigscan.metrics.matches"); !ok || value.AsInt64() != 3 {
		t.Fatalf("expected metrics matches attribute, got %#v", value)
	}
}

func TestToLogValueCompositeTypes(t *testing.T) {
	mapValue := toLogValue(map[string]string{"a": "b"})
	if mapValue.Kind() != otelLog.KindMap {
		t.Fatalf("expected map kind, got %v", mapValue.Kind())
	}
	sliceValue := toLogValue([]interface{}{"a", 1, true})
	if sliceValue.Kind() != otelLog.KindSlice || len(sliceValue.AsSlice()) != 3 {
		t.Fatalf("expected slice kind/len, got kind=%v len=%d", sliceValue.Kind(), len(sliceValue.AsSlice()))
	}
	if empty := toLogValue(struct{}{}); empty.Kind() != otelLog.KindEmpty {
		t.Fatalf("expected empty kind for unsupported type, got %v", empty.Kind())
	}
}

func TestOtelLoggerEndpointAndValidation(t *testing.T) {
	var nilLogger *otelLogger
	if got := nilLogger.Endpoint(); got != "" {
		t.Fatalf("expected empty endpoint for nil logger, got %q", got)
	}
	nilLogger.Emit("match", map[string]interface{}{"name": "x"})
	nilLogger.Shutdown()

	loggerNilCfg, err := newOtelLogger(nil)
	if err != nil {
		t.Fatalf("newOtelLogger(nil) returned error: %v", err)
	}
	if loggerNilCfg != nil {
		t.Fatal("expected nil logger for nil config")
	}

	disabled, err := newOtelLogger(&config.Config{})
	if err != nil || disabled != nil {
		t.Fatalf("expected disabled logger without endpoint, got %v, %v", disabled, err)
	}

	_, err = newOtelLogger(&config.Config{
		OtelEndpoint:    "localhost:4318",
		OtelServiceName: "sigscan",
		OtelTimeout:     1,
	})
	if err == nil {
		t.Fatal("expected validation error for endpoint without scheme")
	}
}

func TestToLogKeyValuesSortedOrder(t *testing.T) {
	kvs := toLogKeyValues(map[string]interface{}{
		"zeta":   1,
		"alpha":  2,
		"middle": 3,
	})
	if len(kvs) != 3 {
		t.Fatalf("expected 3 key values, got %d", len(kvs))
	}
	if kvs[0].Key != "alpha" || kvs[1].Key != "middle" || kvs[2].Key != "zeta" {
		t.Fatalf("expected sorted keys, got order %q, %q, %q", kvs[0].Key, kvs[1].Key, kvs[2].Key)
	}
}

func TestMatchHashOrderDeterministic(t *testing.T) {
	payload := map[string]interface{}{
		"path":         "/tmp/hash-order.bin",
		"hashes":       map[string]string{"sha256": "bbb", "md5": "aaa"},
		"fuzzy_hashes": map[string]string{"tlsh": "ccc"},
	}
	attrs := matchSemanticAttributes(payload, otelPolicy{includePaths: true})

	md5Idx := findAttrIndex(attrs, "sigscan.file.hash.md5")
	shaIdx := findAttrIndex(attrs, "sigscan.file.hash.sha256")
	if md5Idx == -1 || shaIdx == -1 {
		t.Fatalf("expected both md5 and sha256 attrs, got attrs=%v", attrs)
	}
	if md5Idx > shaIdx {
		t.Fatalf("expected md5 attr before sha256 attr, got md5=%d sha256=%d", md5Idx, shaIdx)
	}
	if findAttrIndex(attrs, "sigscan.file.fuzzy_hash.tlsh") == -1 {
		t.Fatal("expected fuzzy hash attr")
	}
}
