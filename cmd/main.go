package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sigscan/config"
	"sigscan/logger"
	"sigscan/output"
	"sigscan/scanner"
	"sigscan/signature"
	"sigscan/systeminfo"
	"sigscan/tracing"
)

func main() {
	if err := tracing.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start trace: %v\n", err)
	} else {
		defer tracing.Stop()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	registry := buildRegistry(cfg)
	if cfg.ListSignatures {
		if err := output.RenderSignatureTable(os.Stdout, registry.List()); err != nil {
			logger.Fatalf("Failed to list signatures: %v", err)
		}
		return
	}

	metrics := output.Metrics{
		StartTime: time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var host *systeminfo.Host
	if cfg.CollectSystemInfo {
		host = systeminfo.GetHost(ctx)
	}

	writer, err := output.New(cfg, host, registry.List(), &metrics)
	if err != nil {
		logger.Fatalf("Failed to initialize output: %v", err)
	}
	defer writer.Close()

	go handleSignals(cancel, &metrics)

	results, err := scanner.Run(ctx, cfg, registry, &metrics, writer)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warnf("Scan interrupted after %d root(s)", len(results))
			return
		}
		writer.Close()
		logger.Fatalf("Scanning failed: %v", err)
	}

	logger.Infof("Scanning completed: %d match(es) in %d file(s) across %d root(s).",
		metrics.Matches, metrics.FilesScanned, metrics.RootsScanned)
}

// buildRegistry seeds the default signature and adds the configured ones in
// label order.
func buildRegistry(cfg *config.Config) *signature.Registry {
	registry := signature.NewRegistry()
	for _, label := range cfg.SignatureLabels() {
		registry.Register(label, cfg.Signatures[label])
	}
	return registry
}

func handleSignals(cancelFunc context.CancelFunc, metrics *output.Metrics) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	handleSignalEvent(cancelFunc, metrics, sigChan)
}

func handleSignalEvent(cancelFunc context.CancelFunc, metrics *output.Metrics, sigChan <-chan os.Signal) {
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")
	metrics.EndTime = time.Now().UTC().Format(time.RFC3339)
	cancelFunc()
}
