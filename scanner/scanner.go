package scanner

import (
	"context"
	"os"
	"strings"
	"time"

	"sigscan/config"
	"sigscan/logger"
	"sigscan/output"
	"sigscan/signature"
	"sigscan/utils"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// Run scans every configured start path with one Walker and writes a scan
// summary, the matches and the faults of each root to w. Roots are scanned in
// order; a canceled context stops after the current root.
func Run(ctx context.Context, cfg *config.Config, reg *signature.Registry, metrics *output.Metrics, w *output.Writer) ([]*ScanResult, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Scanning files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetVisibility(progressVisible()),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetWriter(os.Stderr),
	)
	defer func() { _ = bar.Finish() }()

	walker := NewWalker(reg, walkerOptions(cfg, func(string) { _ = bar.Add(1) })...)

	results := make([]*ScanResult, 0, len(cfg.StartPaths))
	for _, root := range cfg.StartPaths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		logger.Infof("Scanning %s", root)
		res := walker.Scan(ctx, root)
		results = append(results, res)
		if err := writeResult(w, res); err != nil {
			return results, err
		}
		updateMetrics(metrics, res)
		logger.Infof("Scan of %s finished: %s, %d match(es) in %d file(s), %d fault(s)",
			res.Root, res.Status, res.MatchCount, res.FilesScanned, len(res.Faults))
	}
	if metrics != nil {
		metrics.EndTime = time.Now().UTC().Format(time.RFC3339)
	}
	return results, nil
}

func walkerOptions(cfg *config.Config, progress func(string)) []Option {
	opts := []Option{
		WithPatterns(utils.NewPatternMatcher(cfg.IncludePatterns, cfg.ExcludePatterns)),
		WithEnrichers(BuildEnrichers(cfg)...),
		WithContainment(cfg.ContainSymlinks),
		WithProgress(progress),
	}
	if cfg.MaxIOPerSecond > 0 {
		opts = append(opts, WithLimiter(rate.NewLimiter(rate.Limit(cfg.MaxIOPerSecond), cfg.MaxIOPerSecond)))
	}
	return opts
}

func writeResult(w *output.Writer, res *ScanResult) error {
	if w == nil {
		return nil
	}
	if err := w.Write("scan", res.Summary()); err != nil {
		return err
	}
	for _, md := range res.Metadata {
		if err := w.Write("match", md); err != nil {
			return err
		}
	}
	for _, f := range res.Faults {
		if err := w.Write("fault", f); err != nil {
			return err
		}
	}
	return nil
}

func updateMetrics(m *output.Metrics, res *ScanResult) {
	if m == nil {
		return
	}
	m.RootsScanned++
	m.FilesScanned += res.FilesScanned
	m.Matches += uint64(res.MatchCount)
	m.Faults += len(res.Faults)
}

func progressVisible() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("SIGSCAN_DISABLE_PROGRESS")))
	return value != "1" && value != "true" && value != "yes" && value != "on"
}
