// Package output renders comparison results in the supported formats.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"imgcompare/config"
	"imgcompare/types"
)

// Options controls how results are rendered
type Options struct {
	Format string
	// Threshold decides the wording of txt lines when every score is listed
	Threshold float64
}

var csvHeader = []string{"file_name_1", "file_name_2", "similarity_score"}

// Write renders results to w in the requested format
func Write(w io.Writer, results []types.SimilarityResult, opts Options) error {
	if results == nil {
		results = []types.SimilarityResult{}
	}
	switch opts.Format {
	case config.FormatTxt, "":
		return writeTxt(w, results, opts.Threshold)
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case config.FormatCSV:
		return writeCSV(w, results)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case config.FormatTable:
		return writeTable(w, results)
	default:
		return fmt.Errorf("unsupported output format %q", opts.Format)
	}
}

func writeTxt(w io.Writer, results []types.SimilarityResult, threshold float64) error {
	for _, r := range results {
		verdict := "are similar"
		if r.Score <= threshold {
			verdict = "are not similar"
		}
		if _, err := fmt.Fprintf(w, "%q and %q %s. Score: %.2f\n", r.A, r.B, verdict, r.Score); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(w io.Writer, results []types.SimilarityResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{r.A, r.B, formatScore(r.Score)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeTable(w io.Writer, results []types.SimilarityResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.A, r.B, formatScore(r.Score)})
	}
	rendered := RenderTable([]Column{
		{Header: "File 1"},
		{Header: "File 2"},
		{Header: "Score", Numeric: true},
	}, rows)
	_, err := fmt.Fprintln(w, rendered)
	return err
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

// Open returns fallback when path is empty, otherwise a newly created file.
// The returned close function never closes fallback.
func Open(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		if fallback == nil {
			fallback = os.Stdout
		}
		return fallback, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return file, file.Close, nil
}
