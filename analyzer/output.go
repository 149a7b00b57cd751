package analyzer

import (
	"encoding/json"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"

	"github.com/hannajonsd/unsafe-census/config"
)

// WriteReport writes the report to w in the requested format
func WriteReport(w io.Writer, report *RepositoryReport, format config.Format) error {
	switch format {
	case config.FormatText:
		return writeText(w, report)
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode JSON report: %w", err)
		}
		return nil
	case config.FormatYAML:
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode YAML report: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
