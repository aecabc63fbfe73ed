package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Format identifies the kind of document a report file holds
type Format string

const (
	FormatUnknown    Format = ""
	FormatXCCDF      Format = "xccdf"
	FormatResultJSON Format = "result-json"
	FormatResultCBOR Format = "result-cbor"
)

// DetectFormat identifies a report document. It looks at the content
// first and uses the file extension only for binary CBOR results.
func DetectFormat(path string, data []byte) (Format, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatUnknown, fmt.Errorf("empty report file")
	}

	switch trimmed[0] {
	case '<':
		if bytes.Contains(trimmed, []byte("Benchmark")) {
			return FormatXCCDF, nil
		}
		return FormatUnknown, fmt.Errorf("XML document is not an XCCDF benchmark")
	case '{':
		if IsResultJSON(trimmed) {
			return FormatResultJSON, nil
		}
		return FormatUnknown, fmt.Errorf("JSON document is not an exported result")
	}

	if filepath.Ext(path) == ".cbor" {
		return FormatResultCBOR, nil
	}
	return FormatUnknown, fmt.Errorf("unable to detect report format")
}

// IsResultJSON returns true if data looks like a result written by export
// or by the JSON storage codec.
func IsResultJSON(data []byte) bool {
	var structure map[string]json.RawMessage
	if err := json.Unmarshal(data, &structure); err != nil {
		return false
	}
	return hasKey(structure, "groups") && hasKey(structure, "tests") && hasKey(structure, "hostname")
}

func hasKey(m map[string]json.RawMessage, key string) bool {
	_, exists := m[key]
	return exists
}
