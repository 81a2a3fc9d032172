// Package export writes surfaces and vector fields as CSV or JSON, and
// lays out a whole pipeline result in a directory.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/pipeline"
	"github.com/katalvlaran/qpot/surface"
)

// ErrUnknownFormat indicates an unsupported output format.
var ErrUnknownFormat = errors.New("export: unknown format")

// Format is an output encoding.
type Format string

const (
	// CSV writes a y-by-x matrix with NaN for undefined cells.
	CSV Format = "csv"
	// JSON writes nested row arrays with null for undefined cells.
	JSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case CSV, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// WriteCSV writes s as a matrix: the header row holds the x coordinates
// after a "y\x" corner cell, each following row starts with its y
// coordinate. Rows run from y_lo to y_hi. Undefined cells are written as NaN.
func WriteCSV(w io.Writer, s *surface.Scalar) error {
	dom := s.Domain()
	cw := csv.NewWriter(w)

	header := make([]string, 0, dom.NX+1)
	header = append(header, `y\x`)
	for _, x := range dom.X() {
		header = append(header, formatFloat(x))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	ys := dom.Y()
	row := make([]string, dom.NX+1)
	for j := 0; j < dom.NY; j++ {
		row[0] = formatFloat(ys[j])
		for i := 0; i < dom.NX; i++ {
			row[i+1] = "NaN"
			if v, ok := s.At(i, j); ok {
				row[i+1] = formatFloat(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

// WriteVectorCSV writes f in long form with columns x,y,u,v, one line per
// node in row-major order. Undefined vectors are written as NaN,NaN.
func WriteVectorCSV(w io.Writer, f *surface.VectorField) error {
	dom := f.Domain()
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "u", "v"}); err != nil {
		return err
	}

	xs, ys := dom.X(), dom.Y()
	for j := 0; j < dom.NY; j++ {
		for i := 0; i < dom.NX; i++ {
			u, v := "NaN", "NaN"
			if vec, ok := f.At(i, j); ok {
				u, v = formatFloat(vec.X), formatFloat(vec.Y)
			}
			if err := cw.Write([]string{formatFloat(xs[i]), formatFloat(ys[j]), u, v}); err != nil {
				return err
			}
		}
	}
	cw.Flush()

	return cw.Error()
}

// surfaceJSON is the JSON shape of a scalar surface. Undefined cells are
// null since JSON has no NaN.
type surfaceJSON struct {
	Domain domain.Domain `json:"domain"`
	X      []float64     `json:"x"`
	Y      []float64     `json:"y"`
	Values [][]*float64  `json:"values"` // [j][i]
}

// WriteJSON writes s with its domain and axes.
func WriteJSON(w io.Writer, s *surface.Scalar) error {
	dom := s.Domain()
	out := surfaceJSON{Domain: dom, X: dom.X(), Y: dom.Y(), Values: make([][]*float64, dom.NY)}
	for j := range out.Values {
		row := make([]*float64, dom.NX)
		for i := range row {
			if v, ok := s.At(i, j); ok {
				row[i] = &v
			}
		}
		out.Values[j] = row
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

// summaryJSON describes a pipeline run.
type summaryJSON struct {
	Domain        domain.Domain `json:"domain"`
	Offsets       []float64     `json:"offsets"`
	Policy        string        `json:"policy"`
	Discontinuity []float64     `json:"discontinuity"`
	Basins        []basinJSON   `json:"basins"`
	Orthogonality *orthoJSON    `json:"orthogonality,omitempty"`
	Warnings      []string      `json:"warnings"`
}

type basinJSON struct {
	Equilibrium [2]float64 `json:"equilibrium"`
	Seed        [2]int     `json:"seed"`
	Approximate bool       `json:"approximate"`
	Accepted    int        `json:"accepted"`
	BoundaryHit bool       `json:"boundary_hit"`
}

type orthoJSON struct {
	Checked    int     `json:"checked"`
	Scored     int     `json:"scored"`
	Violations int     `json:"violations"`
	MaxCosine  float64 `json:"max_cosine"`
	MeanCosine float64 `json:"mean_cosine"`
}

// WriteResult writes every surface and field of res into dir, creating it
// if needed, and returns the paths written:
//
//	global.<ext>, local_<k>.<ext>, drift.csv, gradient.csv, remainder.csv,
//	summary.json
//
// Vector fields are always CSV.
func WriteResult(dir string, res *pipeline.Result, format Format) ([]string, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	put := func(name string, write func(io.Writer) error) error {
		p := filepath.Join(dir, name)
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		if err := write(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("export: writing %s: %w", p, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, p)

		return nil
	}
	scalar := func(s *surface.Scalar) func(io.Writer) error {
		if format == JSON {
			return func(w io.Writer) error { return WriteJSON(w, s) }
		}
		return func(w io.Writer) error { return WriteCSV(w, s) }
	}
	ext := "." + string(format)

	if err := put("global"+ext, scalar(res.Global.Surface)); err != nil {
		return written, err
	}
	for k, l := range res.Locals {
		if err := put(fmt.Sprintf("local_%d%s", k, ext), scalar(l.Surface)); err != nil {
			return written, err
		}
	}
	if res.Fields != nil {
		for _, vf := range []struct {
			name  string
			field *surface.VectorField
		}{
			{"drift.csv", res.Fields.Drift},
			{"gradient.csv", res.Fields.Gradient},
			{"remainder.csv", res.Fields.Remainder},
		} {
			field := vf.field
			if err := put(vf.name, func(w io.Writer) error { return WriteVectorCSV(w, field) }); err != nil {
				return written, err
			}
		}
	}

	sum := summary(res)
	err := put("summary.json", func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	})

	return written, err
}

func summary(res *pipeline.Result) summaryJSON {
	s := summaryJSON{
		Domain:        res.Global.Surface.Domain(),
		Offsets:       res.Global.Offsets,
		Policy:        res.Global.Policy,
		Discontinuity: res.Global.Discontinuity,
		Warnings:      []string{},
	}
	for _, l := range res.Locals {
		s.Basins = append(s.Basins, basinJSON{
			Equilibrium: l.Equilibrium,
			Seed:        [2]int{l.Seed.I, l.Seed.J},
			Approximate: l.Approximate,
			Accepted:    l.Stats.Accepted,
			BoundaryHit: l.Stats.BoundaryHit,
		})
	}
	if res.Fields != nil {
		r := res.Fields.Report
		s.Orthogonality = &orthoJSON{Checked: r.Checked, Scored: r.Scored, Violations: r.Violations, MaxCosine: r.MaxCosine, MeanCosine: r.MeanCosine}
	}
	for _, w := range res.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}

	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
