// Package telemetry records simulation runs: per-iteration plant statistics,
// iteration timings, the effective configuration and debug images, all
// written into one output directory.
package telemetry

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/joepstevens0/inf-masterproef/config"
	"github.com/joepstevens0/inf-masterproef/tree"
)

// csvFile appends records to a CSV file, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output.
type OutputManager struct {
	dir        string
	iterations *csvFile
	perf       *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.iterations, err = createCSV(dir, "iterations.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = createCSV(dir, "perf.csv"); err != nil {
		om.iterations.f.Close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteIteration appends one iteration record to iterations.csv.
func (om *OutputManager) WriteIteration(stats IterationStats) error {
	if om == nil {
		return nil
	}
	if err := om.iterations.write([]IterationStats{stats}); err != nil {
		return fmt.Errorf("writing iteration stats: %w", err)
	}
	return nil
}

// WritePerf appends a performance record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// BranchRecord is one render record flattened for CSV export.
type BranchRecord struct {
	ID         uint32  `csv:"id"`
	Kind       string  `csv:"kind"`
	StartX     float64 `csv:"start_x"`
	StartY     float64 `csv:"start_y"`
	StartZ     float64 `csv:"start_z"`
	EndX       float64 `csv:"end_x"`
	EndY       float64 `csv:"end_y"`
	EndZ       float64 `csv:"end_z"`
	StartWidth float64 `csv:"start_width"`
	EndWidth   float64 `csv:"end_width"`
	Color      string  `csv:"color"`
}

// BranchRecords flattens views for export.
func BranchRecords(views []tree.BranchView) []BranchRecord {
	out := make([]BranchRecord, len(views))
	for i, v := range views {
		c := v.DisplayColor()
		out[i] = BranchRecord{
			ID:         v.ID,
			Kind:       string(v.Kind),
			StartX:     v.Start.X,
			StartY:     v.Start.Y,
			StartZ:     v.Start.Z,
			EndX:       v.End.X,
			EndY:       v.End.Y,
			EndZ:       v.End.Z,
			StartWidth: v.StartWidth,
			EndWidth:   v.EndWidth,
			Color:      fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A),
		}
	}
	return out
}

// WriteBranches saves the render records of iteration as branches_NNNN.csv.
func (om *OutputManager) WriteBranches(iteration int, views []tree.BranchView) error {
	if om == nil {
		return nil
	}
	name := fmt.Sprintf("branches_%04d.csv", iteration)
	f, err := os.Create(filepath.Join(om.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer f.Close()
	if err := gocsv.Marshal(BranchRecords(views), f); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// WriteShadowSlice saves one horizontal shadow layer as shadow_layer_NNN.png.
// pixels is row-major with width w, as returned by the environment debug
// texture.
func (om *OutputManager) WriteShadowSlice(layer, w int, pixels []color.RGBA) error {
	if om == nil {
		return nil
	}
	if w <= 0 || len(pixels)%w != 0 {
		return fmt.Errorf("shadow slice: %d pixels do not fill rows of %d", len(pixels), w)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, len(pixels)/w))
	for i, c := range pixels {
		img.SetRGBA(i%w, i/w, c)
	}

	name := fmt.Sprintf("shadow_layer_%03d.png", layer)
	f, err := os.Create(filepath.Join(om.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return f.Close()
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, c := range []*csvFile{om.iterations, om.perf} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
