package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sigscan/version"

	"gopkg.in/yaml.v3"
)

type Config struct {
	StartPaths        []string          `json:"start_paths" yaml:"start_paths"`
	Signatures        map[string]string `json:"signatures" yaml:"signatures"`
	IncludePatterns   []string          `json:"include_patterns" yaml:"include_patterns"`
	ExcludePatterns   []string          `json:"exclude_patterns" yaml:"exclude_patterns"`
	ContainSymlinks   bool              `json:"contain_symlinks" yaml:"contain_symlinks"`
	OutputFormat      string            `json:"output_format" yaml:"output_format"`
	OutputFileName    string            `json:"output_file_name" yaml:"output_file_name"`
	MaxOutputFileSize int64             `json:"max_output_file_size" yaml:"max_output_file_size"`
	LogLevel          string            `json:"log_level" yaml:"log_level"`
	MaxIOPerSecond    int               `json:"max_io_per_second" yaml:"max_io_per_second"`
	HashAlgorithms    []string          `json:"hash_algorithms" yaml:"hash_algorithms"`
	FuzzyHash         bool              `json:"fuzzy_hash" yaml:"fuzzy_hash"`
	FuzzyAlgorithms   []string          `json:"fuzzy_algorithms" yaml:"fuzzy_algorithms"`
	FuzzyMinSize      int64             `json:"fuzzy_min_size" yaml:"fuzzy_min_size"`
	FuzzyMaxSize      int64             `json:"fuzzy_max_size" yaml:"fuzzy_max_size"`
	DetectMime        bool              `json:"detect_mime" yaml:"detect_mime"`
	DocumentMetadata  bool              `json:"document_metadata" yaml:"document_metadata"`
	MetadataMaxBytes  int64             `json:"metadata_max_bytes" yaml:"metadata_max_bytes"`
	CollectSystemInfo bool              `json:"collect_system_info" yaml:"collect_system_info"`
	ListSignatures    bool              `json:"list_signatures" yaml:"list_signatures"`
	ConfigFile        string            `json:"config_file" yaml:"config_file"`
	OtelEndpoint      string            `json:"otel_endpoint" yaml:"otel_endpoint"`
	OtelHeaders       map[string]string `json:"otel_headers" yaml:"otel_headers"`
	OtelServiceName   string            `json:"otel_service_name" yaml:"otel_service_name"`
	OtelTimeout       time.Duration     `json:"otel_timeout" yaml:"otel_timeout"`
	OtelFromEnv       bool              `json:"otel_from_env" yaml:"otel_from_env"`
	OtelExportPaths   bool              `json:"otel_export_paths" yaml:"otel_export_paths"`
}

// Default returns the configuration used before flags and files are applied.
func Default() *Config {
	now := time.Now().UTC()
	return &Config{
		StartPaths:        []string{"."},
		Signatures:        map[string]string{},
		OutputFormat:      "json",
		OutputFileName:    fmt.Sprintf("sigscan-%s.ndjson", now.Format("20060102-150405")),
		MaxOutputFileSize: 104857600,
		LogLevel:          "info",
		MaxIOPerSecond:    0,
		HashAlgorithms:    []string{"sha256"},
		FuzzyAlgorithms:   []string{},
		FuzzyMinSize:      256,
		FuzzyMaxSize:      20 * 1024 * 1024,
		DetectMime:        true,
		DocumentMetadata:  true,
		MetadataMaxBytes:  1 * 1024 * 1024,
		CollectSystemInfo: true,
		OtelHeaders:       map[string]string{},
		OtelServiceName:   "sigscan",
		OtelTimeout:       5 * time.Second,
	}
}

func LoadConfig() (*Config, error) {
	return loadConfig(flag.CommandLine, os.Args[1:])
}

func loadConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()

	startPath := fs.String("path", strings.Join(cfg.StartPaths, ","), fmt.Sprintf("Comma-separated list of directories to scan (default: %s).", strings.Join(cfg.StartPaths, ",")))
	signatures := fs.String("signature", "", "Comma-separated label=HEX signatures to register in addition to exe=4D5A (default: none).")
	includes := fs.String("include", "", "Comma-separated list of include patterns (glob or regex) (default: none).")
	excludes := fs.String("exclude", "", "Comma-separated list of exclude patterns (glob or regex) (default: none).")
	containSymlinks := fs.Bool("contain-symlinks", cfg.ContainSymlinks, fmt.Sprintf("Skip symbolic links that resolve outside the scanned directory (default: %t).", cfg.ContainSymlinks))
	format := fs.String("format", cfg.OutputFormat, fmt.Sprintf("Output format: json, csv, or text (default: %s).", cfg.OutputFormat))
	output := fs.String("output", cfg.OutputFileName, "Output file name, - for stdout (default: sigscan-<timestamp>.ndjson).")
	maxOutputFileSize := fs.Int64("max-output-file-size", cfg.MaxOutputFileSize, fmt.Sprintf("Maximum output file size before rotation in bytes (default: %d).", cfg.MaxOutputFileSize))
	logLevel := fs.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	maxIO := fs.Int("max-io-per-second", cfg.MaxIOPerSecond, "Maximum files classified per second, 0 for unlimited (default: 0).")
	hashes := fs.String("hashes", strings.Join(cfg.HashAlgorithms, ","), fmt.Sprintf("Comma-separated hash algorithms for matched files: md5, sha1, sha256, blake3, xxh64 (default: %s).", strings.Join(cfg.HashAlgorithms, ",")))
	fuzzyHash := fs.Bool("fuzzy-hash", cfg.FuzzyHash, fmt.Sprintf("Enable fuzzy hashing of matched files (default: %t).", cfg.FuzzyHash))
	fuzzyAlgorithms := fs.String("fuzzy-algorithms", "", "Comma-separated list of fuzzy hash algorithms (default: tlsh when fuzzy hashing enabled).")
	fuzzyMinSize := fs.Int64("fuzzy-min-size", cfg.FuzzyMinSize, fmt.Sprintf("Minimum file size in bytes for fuzzy hashing (default: %d).", cfg.FuzzyMinSize))
	fuzzyMaxSize := fs.Int64("fuzzy-max-size", cfg.FuzzyMaxSize, fmt.Sprintf("Maximum file size in bytes for fuzzy hashing (default: %d).", cfg.FuzzyMaxSize))
	detectMime := fs.Bool("detect-mime", cfg.DetectMime, fmt.Sprintf("Detect the MIME type of matched files (default: %t).", cfg.DetectMime))
	documentMetadata := fs.Bool("document-metadata", cfg.DocumentMetadata, fmt.Sprintf("Extract EXIF/PDF/DOCX properties from matched files (default: %t).", cfg.DocumentMetadata))
	metadataMaxBytes := fs.Int64("metadata-max-bytes", cfg.MetadataMaxBytes, fmt.Sprintf("Maximum bytes metadata parsers may read per file, 0 means unlimited (default: %d).", cfg.MetadataMaxBytes))
	collectSystemInfo := fs.Bool("collect-system-info", cfg.CollectSystemInfo, fmt.Sprintf("Write a host record to the output (default: %t).", cfg.CollectSystemInfo))
	listSignatures := fs.Bool("list-signatures", false, "Print the registered signatures and exit.")
	configFile := fs.String("config", "", "Path to JSON or YAML configuration file (default: none).")
	otelEndpoint := fs.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint (default: none).")
	otelHeaders := fs.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	otelServiceName := fs.String("otel-service-name", cfg.OtelServiceName, fmt.Sprintf("OTEL service name for export (default: %s).", cfg.OtelServiceName))
	otelTimeout := fs.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	otelFromEnv := fs.Bool("otel-from-env", cfg.OtelFromEnv, "Use OTEL_EXPORTER_OTLP_* environment variables when --otel-endpoint is unset (default: false).")
	otelExportPaths := fs.Bool("otel-export-paths", cfg.OtelExportPaths, "Include file paths in exported OTEL records (default: false).")
	showVersion := fs.Bool("version", false, "Print version and exit")

	fs.Usage = func() { displayHelp(fs) }
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *showVersion {
		fmt.Printf("sigscan version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	var visitErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.StartPaths = parseCommaSeparated(*startPath)
		case "signature":
			parsed, err := parseSignatures(*signatures)
			if err != nil {
				visitErr = err
				return
			}
			if cfg.Signatures == nil {
				cfg.Signatures = map[string]string{}
			}
			for label, sig := range parsed {
				cfg.Signatures[label] = sig
			}
		case "include":
			cfg.IncludePatterns = parseCommaSeparated(*includes)
		case "exclude":
			cfg.ExcludePatterns = parseCommaSeparated(*excludes)
		case "contain-symlinks":
			cfg.ContainSymlinks = *containSymlinks
		case "format":
			cfg.OutputFormat = *format
		case "output":
			cfg.OutputFileName = *output
		case "max-output-file-size":
			cfg.MaxOutputFileSize = *maxOutputFileSize
		case "log-level":
			cfg.LogLevel = *logLevel
		case "max-io-per-second":
			cfg.MaxIOPerSecond = *maxIO
		case "hashes":
			cfg.HashAlgorithms = parseCommaSeparated(*hashes)
		case "fuzzy-hash":
			cfg.FuzzyHash = *fuzzyHash
		case "fuzzy-algorithms":
			cfg.FuzzyAlgorithms = parseCommaSeparated(*fuzzyAlgorithms)
		case "fuzzy-min-size":
			cfg.FuzzyMinSize = *fuzzyMinSize
		case "fuzzy-max-size":
			cfg.FuzzyMaxSize = *fuzzyMaxSize
		case "detect-mime":
			cfg.DetectMime = *detectMime
		case "document-metadata":
			cfg.DocumentMetadata = *documentMetadata
		case "metadata-max-bytes":
			cfg.MetadataMaxBytes = *metadataMaxBytes
		case "collect-system-info":
			cfg.CollectSystemInfo = *collectSystemInfo
		case "list-signatures":
			cfg.ListSignatures = *listSignatures
		case "otel-endpoint":
			cfg.OtelEndpoint = strings.TrimSpace(*otelEndpoint)
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		case "otel-service-name":
			cfg.OtelServiceName = strings.TrimSpace(*otelServiceName)
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		case "otel-from-env":
			cfg.OtelFromEnv = *otelFromEnv
		case "otel-export-paths":
			cfg.OtelExportPaths = *otelExportPaths
		}
	})
	if visitErr != nil {
		return nil, visitErr
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func displayHelp(fs *flag.FlagSet) {
	fmt.Println("sigscan - find files by their leading-byte signature")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sigscan [options]")
	fmt.Println()
	fmt.Println("Options:")
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  sigscan --path \"/tmp\"")
	fmt.Println("  sigscan --path \"/home,/var\" --signature \"png=8950,jpg=FFD8\"")
	fmt.Println("  sigscan --path ./downloads --format text --output -")
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("invalid config file format: %w", err)
	}
	return nil
}

func (cfg *Config) normalize() {
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.HashAlgorithms = normalizeAlgorithms(cfg.HashAlgorithms)
	cfg.FuzzyAlgorithms = normalizeAlgorithms(cfg.FuzzyAlgorithms)
	if cfg.FuzzyHash && len(cfg.FuzzyAlgorithms) == 0 {
		cfg.FuzzyAlgorithms = []string{"tlsh"}
	}
	if len(cfg.FuzzyAlgorithms) > 0 {
		cfg.FuzzyHash = true
	}
	if cfg.FuzzyMaxSize > 0 && cfg.FuzzyMaxSize < cfg.FuzzyMinSize {
		cfg.FuzzyMaxSize = cfg.FuzzyMinSize
	}
	if cfg.OtelServiceName == "" {
		cfg.OtelServiceName = "sigscan"
	}
	if len(cfg.StartPaths) == 0 {
		cfg.StartPaths = []string{"."}
	}
}

func (cfg *Config) validate() error {
	if len(cfg.StartPaths) == 0 && !cfg.ListSignatures {
		return fmt.Errorf("at least one start path must be specified")
	}
	switch cfg.OutputFormat {
	case "json", "csv", "text":
	default:
		return fmt.Errorf("invalid output format: %s (json, csv, or text)", cfg.OutputFormat)
	}
	if cfg.OutputFileName == "" {
		return fmt.Errorf("output file name must not be empty")
	}
	if cfg.MaxOutputFileSize < 0 {
		return fmt.Errorf("max-output-file-size must be zero or positive")
	}
	if cfg.MaxIOPerSecond < 0 {
		return fmt.Errorf("max-io-per-second must be zero or positive")
	}
	if cfg.FuzzyMinSize < 0 || cfg.FuzzyMaxSize < 0 {
		return fmt.Errorf("fuzzy size limits must be zero or positive")
	}
	if cfg.MetadataMaxBytes < 0 {
		return fmt.Errorf("metadata-max-bytes must be zero or positive")
	}
	if cfg.OtelTimeout < 0 {
		return fmt.Errorf("otel-timeout must be zero or positive")
	}
	if cfg.OtelEndpoint != "" {
		if !strings.HasPrefix(cfg.OtelEndpoint, "http://") && !strings.HasPrefix(cfg.OtelEndpoint, "https://") {
			return fmt.Errorf("otel-endpoint must include scheme (http or https)")
		}
	}
	for label := range cfg.Signatures {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("signature labels must not be empty")
		}
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" &&
		cfg.LogLevel != "error" && cfg.LogLevel != "fatal" && cfg.LogLevel != "panic" {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	return nil
}

// SignatureLabels returns the configured labels in sorted order.
func (cfg *Config) SignatureLabels() []string {
	labels := make([]string, 0, len(cfg.Signatures))
	for label := range cfg.Signatures {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}
	items := strings.Split(input, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// parseSignatures reads "label=HEX" pairs. Later pairs overwrite earlier ones.
func parseSignatures(input string) (map[string]string, error) {
	sigs := make(map[string]string)
	for _, item := range parseCommaSeparated(input) {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid signature %q: expected label=HEX", item)
		}
		label := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if label == "" || value == "" {
			return nil, fmt.Errorf("invalid signature %q: expected label=HEX", item)
		}
		sigs[label] = value
	}
	return sigs, nil
}

func parseHeaders(input string) map[string]string {
	headers := make(map[string]string)
	if input == "" {
		return headers
	}
	items := strings.Split(input, ",")
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		headers[key] = value
	}
	return headers
}

func normalizeAlgorithms(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		normalized = append(normalized, item)
	}
	return normalized
}
