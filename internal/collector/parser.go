package collector

import (
	"fmt"
	"strings"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/ingest"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/storage"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/validator"
)

// ParseDocument turns a detected document into an unaggregated report
func ParseDocument(p *ingest.Parser, format Format, data []byte, source string) (*ingest.Report, error) {
	switch format {
	case FormatXCCDF:
		return p.Parse(data, source)
	case FormatResultJSON:
		return parseResult(storage.JSONCodec{}, data, source)
	case FormatResultCBOR:
		codec, err := storage.NewCBORCodec()
		if err != nil {
			return nil, err
		}
		return parseResult(codec, data, source)
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// parseResult reads a previously exported result. Counters are cleared
// and recomputed by the aggregator.
func parseResult(codec storage.Codec, data []byte, source string) (*ingest.Report, error) {
	var result models.Result
	if err := codec.Unmarshal(data, &result); err != nil {
		return nil, &validator.ValidationError{
			Source: source,
			Errors: []string{fmt.Sprintf("Failed to parse %s result: %v", codec.Name(), err)},
		}
	}

	if strings.TrimSpace(result.ID) == "" {
		return nil, &validator.ValidationError{Source: source, Errors: []string{"missing result id"}}
	}

	result.Aggregated = false
	result.Quarantined = nil
	result.Counters = models.Counters{}
	for i := range result.Groups {
		result.Groups[i].Counters = models.Counters{}
	}

	return &ingest.Report{Source: source, Catalog: CatalogOf(&result), Result: &result}, nil
}

// CatalogOf rebuilds the test catalog from the snapshots a result carries
func CatalogOf(r *models.Result) *models.Catalog {
	catalog := models.NewCatalog()
	for i := range r.Groups {
		_, _ = catalog.AddGroup(r.Groups[i].Group)
	}
	for i := range r.Tests {
		_, _ = catalog.AddTest(r.Tests[i].Test)
	}
	return catalog
}
