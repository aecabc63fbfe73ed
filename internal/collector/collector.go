package collector

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/aggregator"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/ingest"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// Config holds configuration for the collector
type Config struct {
	MaxConcurrency int
	Timeout        time.Duration
	Logger         logrus.FieldLogger
	UnknownStates  aggregator.UnknownStateMode
}

// Imported is one report file turned into an aggregated result
type Imported struct {
	Source  string
	Format  Format
	Catalog *models.Catalog
	Result  *models.Result
}

// FileError records a report file that could not be imported
type FileError struct {
	Source string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Batch is the outcome of one collection. Imported and Failed are sorted
// by source path.
type Batch struct {
	Imported []Imported
	Failed   []*FileError
}

// Collector orchestrates the import of report files
type Collector struct {
	config     Config
	parser     *ingest.Parser
	aggregator *aggregator.Aggregator
}

// New creates a new collector with the given configuration
func New(config Config) *Collector {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	if config.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		config.Logger = l
	}

	return &Collector{
		config:     config,
		parser:     ingest.NewParser(config.Logger),
		aggregator: aggregator.New(aggregator.Options{UnknownStates: config.UnknownStates}),
	}
}

// CollectFromDirectory imports every report file below dir
func (c *Collector) CollectFromDirectory(ctx context.Context, dir string) (*Batch, error) {
	files, err := c.findReportFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to find report files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no report files found in directory: %s", dir)
	}
	return c.collect(ctx, files)
}

// CollectFromPaths imports the given files and directories
func (c *Collector) CollectFromPaths(ctx context.Context, paths []string) (*Batch, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths given")
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if info.IsDir() {
			found, err := c.findReportFiles(p)
			if err != nil {
				return nil, fmt.Errorf("failed to find report files in %s: %w", p, err)
			}
			files = append(files, found...)
			continue
		}
		if !isReportFile(p) {
			return nil, fmt.Errorf("not a report file: %s (expected .xml, .json or .cbor)", p)
		}
		files = append(files, p)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no report files found in %v", paths)
	}
	return c.collect(ctx, files)
}

func (c *Collector) findReportFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isReportFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, err
}

func isReportFile(path string) bool {
	switch filepath.Ext(path) {
	case ".xml", ".json", ".cbor":
		return true
	}
	return false
}

func (c *Collector) collect(parent context.Context, files []string) (*Batch, error) {
	if err := parent.Err(); err != nil {
		return nil, fmt.Errorf("import canceled: %w", err)
	}
	c.config.Logger.Infof("Found %d report file(s) to process", len(files))

	ctx, cancel := context.WithTimeout(parent, c.config.Timeout)
	defer cancel()

	fileCh := make(chan string, len(files))
	resultCh := make(chan *collectResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < c.config.MaxConcurrency; i++ {
		wg.Add(1)
		go c.worker(ctx, &wg, fileCh, resultCh)
	}

	for _, file := range files {
		fileCh <- file
	}
	close(fileCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	batch := &Batch{}
	for result := range resultCh {
		if result.err != nil {
			c.config.Logger.WithField("file", result.file).Errorf("import failed: %v", result.err)
			batch.Failed = append(batch.Failed, &FileError{Source: result.file, Err: result.err})
			continue
		}
		c.config.Logger.WithField("file", filepath.Base(result.file)).
			Infof("Imported %s (%d tests)", result.imported.Result.Hostname, len(result.imported.Result.Tests))
		batch.Imported = append(batch.Imported, *result.imported)
	}

	if err := ctx.Err(); err != nil && len(batch.Imported)+len(batch.Failed) < len(files) {
		return nil, fmt.Errorf("import interrupted: %w", err)
	}

	sort.Slice(batch.Imported, func(i, j int) bool { return batch.Imported[i].Source < batch.Imported[j].Source })
	sort.Slice(batch.Failed, func(i, j int) bool { return batch.Failed[i].Source < batch.Failed[j].Source })

	if len(batch.Imported) == 0 {
		return batch, fmt.Errorf("all files failed to process (%d errors): %w", len(batch.Failed), batch.Failed[0])
	}
	if len(batch.Failed) > 0 {
		c.config.Logger.Warnf("%d file(s) failed to process", len(batch.Failed))
	}

	return batch, nil
}

type collectResult struct {
	file     string
	imported *Imported
	err      error
}

func (c *Collector) worker(ctx context.Context, wg *sync.WaitGroup, fileCh <-chan string, resultCh chan<- *collectResult) {
	defer wg.Done()

	for {
		select {
		case file, ok := <-fileCh:
			if !ok {
				return
			}
			imported, err := c.processFile(file)
			resultCh <- &collectResult{file: file, imported: imported, err: err}

		case <-ctx.Done():
			return
		}
	}
}

// processFile parses one report and aggregates its tree
func (c *Collector) processFile(filePath string) (*Imported, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	format, err := DetectFormat(filePath, data)
	if err != nil {
		return nil, err
	}

	report, err := ParseDocument(c.parser, format, data, filePath)
	if err != nil {
		return nil, err
	}

	result, err := c.aggregator.Aggregate(report.Result)
	if err != nil {
		return nil, err
	}

	if n := len(result.Quarantined); n > 0 {
		c.config.Logger.WithField("file", filePath).Warnf("%d test(s) with unknown states quarantined", n)
	}

	return &Imported{
		Source:  filePath,
		Format:  format,
		Catalog: report.Catalog,
		Result:  result,
	}, nil
}
