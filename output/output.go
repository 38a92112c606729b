package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sigscan/config"
	"sigscan/logger"
	"sigscan/systeminfo"
)

// SchemaVersion is stamped on every record so consumers can detect layout changes.
const SchemaVersion = "1.0.0"

// Stdout is the output file name that selects standard output.
const Stdout = "-"

const (
	flushEveryRecords = 256
	flushMaxInterval  = 2 * time.Second
)

type Metrics struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	RootsScanned int    `json:"roots_scanned"`
	FilesScanned uint64 `json:"files_scanned"`
	Matches      uint64 `json:"matches"`
	Faults       int    `json:"faults"`
}

func (m *Metrics) Text() string {
	return fmt.Sprintf("Roots scanned: %d, files scanned: %d, matches: %d, faults: %d\n",
		m.RootsScanned, m.FilesScanned, m.Matches, m.Faults)
}

// Texter is implemented by payloads that render themselves in text output.
type Texter interface {
	Text() string
}

// Fielder is implemented by payloads that fill named CSV columns.
type Fielder interface {
	Fields() map[string]string
}

type record struct {
	RecordType    string      `json:"record_type"`
	SchemaVersion string      `json:"schema_version"`
	Payload       interface{} `json:"payload"`
}

// Writer serializes records to a file or stdout in json (ndjson), csv or
// text format. It is safe for concurrent use.
type Writer struct {
	mu      sync.Mutex
	file    *os.File
	out     io.Writer
	buf     *bufio.Writer
	csvw    *csv.Writer
	metrics *Metrics
	headers []record
	otel    *otelLogger
	base    string
	ext     string
	index   int
	format  string
	maxSize int64

	recordsSinceSync int
	lastSyncAt       time.Time
}

// New opens the configured output and writes the header records: the host
// description (when host is non-nil) and the registered signatures.
func New(cfg *config.Config, host *systeminfo.Host, signatures map[string]string, m *Metrics) (*Writer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("output: nil config")
	}
	ext := filepath.Ext(cfg.OutputFileName)
	format := strings.ToLower(cfg.OutputFormat)
	if format == "" {
		format = "json"
	}

	w := &Writer{
		metrics: m,
		base:    strings.TrimSuffix(cfg.OutputFileName, ext),
		ext:     ext,
		format:  format,
		maxSize: cfg.MaxOutputFileSize,
	}
	if host != nil {
		w.headers = append(w.headers, record{RecordType: "host", SchemaVersion: SchemaVersion, Payload: host})
	}
	w.headers = append(w.headers, record{RecordType: "signatures", SchemaVersion: SchemaVersion, Payload: SignatureList(signatures)})

	otel, err := newOtelLogger(cfg)
	if err != nil {
		logger.Warnf("OTEL export disabled: %v", err)
	} else {
		w.otel = otel
	}

	if cfg.OutputFileName == Stdout {
		w.out = os.Stdout
		w.maxSize = 0
		if err := w.start(); err != nil {
			return nil, err
		}
	} else if err := w.openFile(); err != nil {
		return nil, err
	}
	for _, h := range w.headers {
		w.otel.Emit(h.RecordType, h.Payload)
	}
	return w, nil
}

func (w *Writer) openFile() error {
	name := w.base + w.ext
	if w.index > 0 {
		name = fmt.Sprintf("%s.%d%s", w.base, w.index, w.ext)
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	w.file = f
	w.out = f
	return w.start()
}

// start prepares buffers for the current destination and writes the headers.
func (w *Writer) start() error {
	w.buf = bufio.NewWriterSize(w.out, 64*1024)
	w.csvw = nil
	w.recordsSinceSync = 0
	w.lastSyncAt = time.Now()
	if w.format == "csv" {
		w.csvw = csv.NewWriter(w.buf)
		if err := w.csvw.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, h := range w.headers {
		if err := w.writeRecordLocked(h); err != nil {
			return err
		}
	}
	w.flush()
	return nil
}

// Write appends one record. Records are flushed as they are written and the
// file is rotated once it reaches the configured size.
func (w *Writer) Write(recordType string, payload interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := record{RecordType: recordType, SchemaVersion: SchemaVersion, Payload: payload}
	if err := w.writeRecordLocked(rec); err != nil {
		return fmt.Errorf("write %s record: %w", recordType, err)
	}
	w.otel.Emit(recordType, payload)
	w.recordsSinceSync++
	w.flush()
	if w.shouldSync() {
		w.sync()
	}

	if w.maxSize > 0 && w.file != nil {
		if info, err := w.file.Stat(); err == nil && info.Size() >= w.maxSize {
			return w.rotate()
		}
	}
	return nil
}

func (w *Writer) SetMetrics(m Metrics) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics = &m
}

// Close writes the metrics trailer, closes the output and shuts down export.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.metrics != nil {
		rec := record{RecordType: "metrics", SchemaVersion: SchemaVersion, Payload: w.metrics}
		if err := w.writeRecordLocked(rec); err != nil {
			logger.Warnf("Failed to write metrics record: %v", err)
		}
		w.otel.Emit("metrics", w.metrics)
	}
	w.closeFile()
	w.otel.Shutdown()
}

func (w *Writer) rotate() error {
	w.closeFile()
	w.index++
	return w.openFile()
}

func (w *Writer) closeFile() {
	w.flush()
	if w.file == nil {
		return
	}
	_ = w.file.Sync()
	_ = w.file.Close()
	w.file = nil
}

func (w *Writer) shouldSync() bool {
	if w.recordsSinceSync == 1 || w.recordsSinceSync >= flushEveryRecords {
		return true
	}
	return time.Since(w.lastSyncAt) >= flushMaxInterval
}

func (w *Writer) sync() {
	if w.file != nil {
		_ = w.file.Sync()
	}
	w.recordsSinceSync = 0
	w.lastSyncAt = time.Now()
}

func (w *Writer) flush() {
	if w.csvw != nil {
		w.csvw.Flush()
	}
	if w.buf != nil {
		_ = w.buf.Flush()
	}
}

func (w *Writer) writeRecordLocked(rec record) error {
	switch w.format {
	case "csv":
		return w.csvw.Write(csvRow(rec))
	case "text":
		_, err := w.buf.WriteString(textOf(rec.Payload))
		return err
	default:
		data, err := jsonMarshal(rec)
		if err != nil {
			return err
		}
		if _, err := w.buf.Write(data); err != nil {
			return err
		}
		return w.buf.WriteByte('\n')
	}
}

var csvHeader = []string{
	"record_type",
	"schema_version",
	"root",
	"status",
	"message",
	"label",
	"signature",
	"name",
	"path",
	"size",
	"created_at",
	"last_accessed_at",
	"last_modified_at",
	"is_symlink",
	"mime_type",
	"file_id",
	"hashes",
	"fuzzy_hashes",
	"document",
	"files_scanned",
	"match_count",
	"fault_count",
	"op",
	"error",
	"payload",
}

func csvRow(rec record) []string {
	row := make([]string, len(csvHeader))
	row[0] = rec.RecordType
	row[1] = rec.SchemaVersion
	f, ok := rec.Payload.(Fielder)
	if !ok {
		row[len(row)-1] = jsonString(rec.Payload)
		return row
	}
	fields := f.Fields()
	for i := 2; i < len(csvHeader)-1; i++ {
		row[i] = fields[csvHeader[i]]
	}
	return row
}

func textOf(payload interface{}) string {
	if t, ok := payload.(Texter); ok {
		return t.Text()
	}
	if s := jsonString(payload); s != "" {
		return s + "\n"
	}
	return ""
}

func jsonString(value interface{}) string {
	if value == nil {
		return ""
	}
	bytes, err := jsonMarshal(value)
	if err != nil {
		return ""
	}
	return string(bytes)
}
