package raster

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/geonate/geonate/internal/vector"
)

// SampleTable is a flat table of pixel values, one column per band plus
// an optional label column, as extracted for training data.
type SampleTable struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// WriteCSV writes the table to a CSV file.
func (t *SampleTable) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			if math.IsNaN(v) {
				record[i] = "NA"
			} else {
				record[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ValuesOptions controls Values.
type ValuesOptions struct {
	// KeepNA keeps rows containing NaN; by default they are dropped.
	KeepNA bool

	// Names overrides the per-band column names; must match the band
	// count when set.
	Names []string

	// Prefix is prepended to every column name. Without Names the
	// default columns are B1..Bn, or Prefix1..Prefixn when a prefix
	// is given.
	Prefix string
}

// Values flattens a raster into a table with one column per band and
// one row per pixel.
func Values(r *Raster, opts *ValuesOptions) (*SampleTable, error) {
	if opts == nil {
		opts = &ValuesOptions{}
	}
	m := r.Meta()
	columns, err := bandColumns(m.Count, opts.Names, opts.Prefix)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, 0, m.Width*m.Height)
	for i := 0; i < m.Width*m.Height; i++ {
		row := make([]float64, m.Count)
		hasNA := false
		for b := 0; b < m.Count; b++ {
			row[b] = r.bands[b][i]
			if math.IsNaN(row[b]) {
				hasNA = true
			}
		}
		if hasNA && !opts.KeepNA {
			continue
		}
		rows = append(rows, row)
	}
	return &SampleTable{Columns: columns, Rows: rows}, nil
}

// ExtractOptions controls ExtractSamples.
type ExtractOptions struct {
	// KeepNA keeps rows containing NaN or the nodata fill.
	KeepNA bool

	// Names overrides all column names including the label column;
	// must have band count + 1 entries when set.
	Names []string

	// Prefix is prepended to the band column names.
	Prefix string

	// LabelFirst puts the label column before the band columns
	// instead of after.
	LabelFirst bool
}

// ExtractSamples reads the pixel values under every feature of a vector
// layer, labeled with the feature's numeric attribute. Point features
// contribute the pixel under each point; polygon features contribute
// every pixel whose center they contain.
func ExtractSamples(r *Raster, layer *vector.Layer, field string, opts *ExtractOptions) (*SampleTable, error) {
	if field == "" {
		return nil, fmt.Errorf("attribute field name is required")
	}
	if opts == nil {
		opts = &ExtractOptions{}
	}
	m := r.Meta()

	var columns []string
	if opts.Names != nil {
		if len(opts.Names) != m.Count+1 {
			return nil, fmt.Errorf("got %d column names, want %d (bands + label)", len(opts.Names), m.Count+1)
		}
		columns = opts.Names
		if opts.Prefix != "" {
			columns = make([]string, len(opts.Names))
			for i, n := range opts.Names {
				columns[i] = opts.Prefix + n
			}
		}
	} else {
		bands, err := bandColumns(m.Count, nil, opts.Prefix)
		if err != nil {
			return nil, err
		}
		if opts.LabelFirst {
			columns = append([]string{field}, bands...)
		} else {
			columns = append(bands, field)
		}
	}

	var rows [][]float64
	for i, f := range layer.Features {
		label, err := vector.NumericProperty(f, field)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		appendRow := func(values []float64) {
			if !opts.KeepNA {
				for _, v := range values {
					if math.IsNaN(v) {
						return
					}
				}
			}
			row := make([]float64, 0, len(values)+1)
			if opts.LabelFirst {
				row = append(row, label)
				row = append(row, values...)
			} else {
				row = append(row, values...)
				row = append(row, label)
			}
			rows = append(rows, row)
		}

		for _, p := range vector.Points(f) {
			cf, rf := m.Transform.Pixel(p[0], p[1])
			col, prow := int(math.Floor(cf)), int(math.Floor(rf))
			appendRow(pixelValues(r, col, prow))
		}
		if vector.IsAreal(f) {
			b := f.Geometry.Bound()
			col0, row0, col1, row1 := pixelRange(m, Bounds{Left: b.Min[0], Bottom: b.Min[1], Right: b.Max[0], Top: b.Max[1]})
			for row := row0; row < row1; row++ {
				for col := col0; col < col1; col++ {
					x, y := m.Transform.World(float64(col)+0.5, float64(row)+0.5)
					if vector.Contains(f, x, y) {
						appendRow(pixelValues(r, col, row))
					}
				}
			}
		}
	}
	return &SampleTable{Columns: columns, Rows: rows}, nil
}

func pixelValues(r *Raster, col, row int) []float64 {
	out := make([]float64, r.Count())
	for b := 1; b <= r.Count(); b++ {
		out[b-1] = r.Value(b, col, row)
	}
	return out
}

func bandColumns(count int, names []string, prefix string) ([]string, error) {
	if names != nil {
		if len(names) != count {
			return nil, fmt.Errorf("got %d column names for %d bands", len(names), count)
		}
		if prefix == "" {
			return names, nil
		}
		out := make([]string, count)
		for i, n := range names {
			out[i] = prefix + n
		}
		return out, nil
	}
	out := make([]string, count)
	for i := range out {
		if prefix == "" {
			out[i] = fmt.Sprintf("B%d", i+1)
		} else {
			out[i] = fmt.Sprintf("%s%d", prefix, i+1)
		}
	}
	return out, nil
}
