package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/loopsim/internal/loop"
)

type ExportData struct {
	RunMetadata
	Times       Series `json:"times"`
	Reference   Series `json:"reference"`
	Disturbance Series `json:"disturbance"`
	Control     Series `json:"control"`
	Response    Series `json:"response"`
}

// ExportJSON writes metadata and signals as one document. path "-" is
// stdout.
func ExportJSON(path string, meta RunMetadata, result *loop.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       Series(result.Times),
		Reference:   Series(result.Reference),
		Disturbance: Series(result.Disturbance),
		Control:     Series(result.Control),
		Response:    Series(result.Response),
	}
	return withOutput(path, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	})
}

// ExportCSV writes the sample table. path "-" is stdout.
func ExportCSV(path string, result *loop.Result) error {
	return withOutput(path, func(w io.Writer) error { return WriteCSV(w, result) })
}

func WriteCSV(out io.Writer, result *loop.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write(signalColumns); err != nil {
		return err
	}
	for i := range result.Times {
		row := []string{
			format(result.Times[i]),
			format(at(result.Reference, i)),
			format(at(result.Disturbance, i)),
			format(at(result.Raw, i)),
			format(at(result.Control, i)),
			format(at(result.PlantInput, i)),
			format(at(result.Response, i)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func withOutput(path string, fn func(io.Writer) error) error {
	if path == "-" || path == "" {
		return fn(os.Stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
