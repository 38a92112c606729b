package scanner

import (
	"context"
	"os"

	"sigscan/config"
	"sigscan/fuzzy"
	"sigscan/hasher"
	"sigscan/logger"
	"sigscan/metadata"

	"github.com/h2non/filetype"
)

// headerSize is the number of bytes filetype needs to identify any type it knows.
const headerSize = 261

const unknownMime = "unknown"

// Enricher adds optional fields to the metadata of a matched file.
type Enricher interface {
	Name() string
	Enabled(cfg *config.Config) bool
	Enrich(ctx context.Context, fc *FileContext, md *FileMetadata) error
}

// FileContext carries lazily loaded state shared by the enrichers of one file.
type FileContext struct {
	Path string
	Info os.FileInfo

	headerLoaded bool
	header       []byte
	headerErr    error
	mimeLoaded   bool
	mimeType     string
}

func newFileContext(path string, info os.FileInfo) *FileContext {
	return &FileContext{Path: path, Info: info}
}

func (fc *FileContext) Header() ([]byte, error) {
	if !fc.headerLoaded {
		fc.header, fc.headerErr = readPrefix(fc.Path, headerSize)
		fc.headerLoaded = true
	}
	return fc.header, fc.headerErr
}

func (fc *FileContext) MimeType() string {
	if fc.mimeLoaded {
		return fc.mimeType
	}
	fc.mimeLoaded = true
	fc.mimeType = unknownMime
	header, err := fc.Header()
	if err != nil || len(header) == 0 {
		return fc.mimeType
	}
	kind, err := filetype.Match(header)
	if err == nil && kind != filetype.Unknown && kind.MIME.Value != "" {
		fc.mimeType = kind.MIME.Value
	}
	return fc.mimeType
}

// BuildEnrichers returns the enrichers enabled by cfg, in the order they run.
func BuildEnrichers(cfg *config.Config) []Enricher {
	if cfg == nil {
		return nil
	}
	all := []Enricher{
		fileIDEnricher{},
		mimeEnricher{},
		hashEnricher{algorithms: cfg.HashAlgorithms},
		fuzzyEnricher{hashers: buildFuzzyHashers(cfg), minSize: cfg.FuzzyMinSize, maxSize: cfg.FuzzyMaxSize},
		documentEnricher{maxBytes: cfg.MetadataMaxBytes},
	}
	enabled := make([]Enricher, 0, len(all))
	for _, e := range all {
		if e.Enabled(cfg) {
			enabled = append(enabled, e)
		}
	}
	return enabled
}

type fileIDEnricher struct{}

func (e fileIDEnricher) Name() string { return "fileid" }

func (e fileIDEnricher) Enabled(cfg *config.Config) bool { return true }

func (e fileIDEnricher) Enrich(ctx context.Context, fc *FileContext, md *FileMetadata) error {
	md.FileID = getFileID(fc.Path, fc.Info)
	return nil
}

type mimeEnricher struct{}

func (e mimeEnricher) Name() string { return "mime" }

func (e mimeEnricher) Enabled(cfg *config.Config) bool { return cfg.DetectMime }

func (e mimeEnricher) Enrich(ctx context.Context, fc *FileContext, md *FileMetadata) error {
	md.MimeType = fc.MimeType()
	_, err := fc.Header()
	return err
}

type hashEnricher struct {
	algorithms []string
}

func (e hashEnricher) Name() string { return "hashes" }

func (e hashEnricher) Enabled(cfg *config.Config) bool { return len(cfg.HashAlgorithms) > 0 }

func (e hashEnricher) Enrich(ctx context.Context, fc *FileContext, md *FileMetadata) error {
	if hashes := hasher.ComputeHashes(fc.Path, e.algorithms); len(hashes) > 0 {
		md.Hashes = hashes
	}
	return nil
}

type fuzzyEnricher struct {
	hashers []fuzzy.Hasher
	minSize int64
	maxSize int64
}

func (e fuzzyEnricher) Name() string { return "fuzzy" }

func (e fuzzyEnricher) Enabled(cfg *config.Config) bool { return len(e.hashers) > 0 }

func (e fuzzyEnricher) Enrich(ctx context.Context, fc *FileContext, md *FileMetadata) error {
	size := fc.Info.Size()
	if size < e.minSize {
		return nil
	}
	if e.maxSize > 0 && size > e.maxSize {
		return nil
	}
	results := make(map[string]string)
	for _, h := range e.hashers {
		hash, err := h.HashFile(fc.Path)
		if err != nil {
			logger.Debugf("Fuzzy hash %s failed for %s: %v", h.Name(), fc.Path, err)
			continue
		}
		if hash != "" {
			results[h.Name()] = hash
		}
	}
	if len(results) > 0 {
		md.FuzzyHashes = results
	}
	return nil
}

type documentEnricher struct {
	maxBytes int64
}

func (e documentEnricher) Name() string { return "document" }

func (e documentEnricher) Enabled(cfg *config.Config) bool { return cfg.DocumentMetadata }

func (e documentEnricher) Enrich(ctx context.Context, fc *FileContext, md *FileMetadata) error {
	mimeType := fc.MimeType()
	if !metadata.Supported(mimeType) {
		return nil
	}
	if props := metadata.Extract(fc.Path, mimeType, e.maxBytes); len(props) > 0 {
		md.Document = props
	}
	return nil
}

func buildFuzzyHashers(cfg *config.Config) []fuzzy.Hasher {
	if !cfg.FuzzyHash && len(cfg.FuzzyAlgorithms) == 0 {
		return nil
	}
	hashers := make([]fuzzy.Hasher, 0, len(cfg.FuzzyAlgorithms))
	for _, name := range cfg.FuzzyAlgorithms {
		h, ok := fuzzy.Lookup(name)
		if !ok {
			logger.Warnf("Unsupported fuzzy hash algorithm: %s", name)
			continue
		}
		hashers = append(hashers, h)
	}
	if len(hashers) == 0 && cfg.FuzzyHash {
		if h, ok := fuzzy.Lookup("tlsh"); ok {
			hashers = append(hashers, h)
		}
	}
	return hashers
}
