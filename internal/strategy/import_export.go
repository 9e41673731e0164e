// Strategy parameter import/export, grounded in the teacher's
// strategy-configuration export/import pair (import_export.go):
// format auto-detection on import, YAML-with-header-comments or JSON
// on export. Adapted to the new contract's ParameterSet snapshot
// instead of the teacher's AgentConfig tree — this engine has no
// agent-consensus settings to serialize, only a strategy name, schema
// version, and a hyper-parameter assignment (spec.md §9's "hyper_space
// is opaque to the engine").
package strategy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ExportFormat specifies the output format for a parameter export.
type ExportFormat string

const (
	FormatYAML ExportFormat = "yaml"
	FormatJSON ExportFormat = "json"
)

// ParamExport is the serializable snapshot of a bound strategy: enough
// to reconstruct a ParameterSet and verify it targets a compatible
// strategy/schema before binding it.
type ParamExport struct {
	ID            string       `yaml:"id" json:"id"`
	StrategyName  string       `yaml:"strategy_name" json:"strategy_name"`
	SchemaVersion string       `yaml:"schema_version" json:"schema_version"`
	ExportedAt    time.Time    `yaml:"exported_at" json:"exported_at"`
	Params        ParameterSet `yaml:"params" json:"params"`
}

// Export serializes a strategy's currently bound parameters.
func Export(s Strategy, params ParameterSet, format ExportFormat) ([]byte, error) {
	exp := ParamExport{
		ID:            uuid.New().String(),
		StrategyName:  s.Name(),
		SchemaVersion: s.SchemaVersion(),
		ExportedAt:    time.Now(),
		Params:        params.Clone(),
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(exp, "", "  ")
	case FormatYAML, "":
		var buf bytes.Buffer
		buf.WriteString(fmt.Sprintf("# strategy parameter export: %s (schema %s)\n", exp.StrategyName, exp.SchemaVersion))
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(exp); err != nil {
			return nil, fmt.Errorf("encode params to yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportToFile picks a format from the file extension when none is
// given and writes the export, creating parent directories as needed.
func ExportToFile(s Strategy, params ParameterSet, path string, format ExportFormat) error {
	if format == "" {
		switch filepath.Ext(path) {
		case ".json":
			format = FormatJSON
		default:
			format = FormatYAML
		}
	}
	data, err := Export(s, params, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0600)
}

// Import deserializes a ParamExport, auto-detecting JSON vs YAML by
// the first non-whitespace byte, matching the teacher's format-sniff.
func Import(data []byte) (*ParamExport, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty parameter export")
	}
	isJSON := false
	for _, b := range data {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		isJSON = b == '{' || b == '['
		break
	}
	var exp ParamExport
	var err error
	if isJSON {
		err = json.Unmarshal(data, &exp)
	} else {
		err = yaml.Unmarshal(data, &exp)
	}
	if err != nil {
		return nil, fmt.Errorf("decode parameter export: %w", err)
	}
	return &exp, nil
}

// ImportFromFile reads and decodes a ParamExport from path.
func ImportFromFile(path string) (*ParamExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameter export: %w", err)
	}
	return Import(data)
}
