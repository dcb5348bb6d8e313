package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/debrisim/internal/dynamo"
)

var trackHeader = []string{"t", "x", "y", "z", "v_x", "v_y", "v_z", "mass"}

type track struct {
	file *os.File
	w    *csv.Writer
}

// Run is a dynamo.Recorder writing tracks/<name>.csv under one run
// directory. It is not safe for concurrent use; the simulator records
// serially.
type Run struct {
	ID  string
	Dir string

	tracks map[string]*track
	files  map[string]string
	order  []string
}

func newRun(id, dir string) *Run {
	return &Run{ID: id, Dir: dir, tracks: make(map[string]*track), files: make(map[string]string)}
}

func trackFile(name string) string {
	return strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(name) + ".csv"
}

// Init creates the body's track and writes the header.
func (r *Run) Init(b *dynamo.Body) error {
	if _, ok := r.tracks[b.Name()]; ok {
		return fmt.Errorf("track %q already open", b.Name())
	}
	file := trackFile(b.Name())
	if other, ok := r.files[file]; ok {
		return fmt.Errorf("tracks %q and %q both map to %s", other, b.Name(), file)
	}

	f, err := os.Create(filepath.Join(r.Dir, tracksDir, file))
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(trackHeader); err != nil {
		f.Close()
		return err
	}

	r.tracks[b.Name()] = &track{file: f, w: w}
	r.files[file] = b.Name()
	r.order = append(r.order, b.Name())
	return nil
}

// Record appends one row and flushes it, so a failed write is reported on
// the step that caused it.
func (r *Run) Record(t float64, b *dynamo.Body) error {
	tr, ok := r.tracks[b.Name()]
	if !ok {
		return fmt.Errorf("track %q not initialised", b.Name())
	}

	row := make([]string, 0, len(trackHeader))
	for _, v := range [...]float64{t, b.Pos.X, b.Pos.Y, b.Pos.Z, b.Vel.X, b.Vel.Y, b.Vel.Z, b.Mass()} {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if err := tr.w.Write(row); err != nil {
		return err
	}
	tr.w.Flush()
	return tr.w.Error()
}

// Close flushes and closes every track, returning all errors joined.
func (r *Run) Close() error {
	var errs []error
	for _, name := range r.order {
		tr := r.tracks[name]
		tr.w.Flush()
		if err := tr.w.Error(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", name, err))
		}
		if err := tr.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.tracks = make(map[string]*track)
	r.files = make(map[string]string)
	r.order = nil
	return errors.Join(errs...)
}
