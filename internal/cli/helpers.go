package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/aggregator"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/collector"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/policy"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/storage"
)

const importTimeout = 5 * time.Minute

// openStore opens the configured result storage
func openStore() (*storage.LocalStorage, error) {
	storagePath, err := cfg.GetStoragePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get storage path: %w", err)
	}

	codec, err := storage.CodecByName(cfg.StorageCodec)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	logDebug("Storage: %s (%s)", storagePath, codec.Name())
	return storage.NewLocalWithCodec(storagePath, codec), nil
}

// newCollector builds a collector honouring the unknown state policy
func newCollector() (*collector.Collector, error) {
	mode, err := aggregator.ParseUnknownStateMode(cfg.UnknownStatePolicy)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	return collector.New(collector.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		Timeout:        importTimeout,
		Logger:         fieldLogger(logrus.Fields{"component": "collector"}),
		UnknownStates:  mode,
	}), nil
}

// loadPolicy reads an explicit policy file, or the nearest
// .preupg-policy.yaml when path is empty
func loadPolicy(path string) (*policy.Policy, error) {
	explicit := path != ""
	if !explicit {
		path = policy.FindPolicyFile()
		if path == "" {
			return nil, nil
		}
		logVerbose("Using policy file: %s", path)
	}

	p, err := policy.LoadFromFile(path)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if p == nil && explicit {
		return nil, &ValidationError{Message: fmt.Sprintf("policy file not found: %s", path)}
	}
	return p, nil
}

// openOutput returns stdout, or a created file when path is set
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// checkFormat rejects output formats a command cannot render
func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return &ValidationError{Message: fmt.Sprintf("unsupported format: %s", format)}
}
