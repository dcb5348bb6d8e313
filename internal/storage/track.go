package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/debrisim/internal/dynamo"
)

// Track is one body's recorded trajectory.
type Track struct {
	Name  string       `json:"name"`
	Mass  float64      `json:"mass"`
	Times []float64    `json:"times"`
	Pos   []dynamo.Vec `json:"positions"`
	Vel   []dynamo.Vec `json:"velocities"`
}

func (t *Track) Len() int { return len(t.Times) }

func (s *Store) LoadTrack(runID, name string) (*Track, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), tracksDir, trackFile(name)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(trackHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("track %s/%s: %w", runID, name, err)
	}

	tr := &Track{Name: name}
	if len(records) < 2 {
		return tr, nil
	}

	n := len(records) - 1
	tr.Times = make([]float64, 0, n)
	tr.Pos = make([]dynamo.Vec, 0, n)
	tr.Vel = make([]dynamo.Vec, 0, n)

	for i, record := range records[1:] {
		var v [8]float64
		for j := range v {
			if v[j], err = strconv.ParseFloat(record[j], 64); err != nil {
				return nil, fmt.Errorf("track %s/%s row %d: %w", runID, name, i+1, err)
			}
		}
		tr.Times = append(tr.Times, v[0])
		tr.Pos = append(tr.Pos, dynamo.Vec{X: v[1], Y: v[2], Z: v[3]})
		tr.Vel = append(tr.Vel, dynamo.Vec{X: v[4], Y: v[5], Z: v[6]})
		tr.Mass = v[7]
	}
	return tr, nil
}

// LoadTracks loads every body listed in the run's metadata.
func (s *Store) LoadTracks(runID string) ([]*Track, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	tracks := make([]*Track, 0, len(meta.Bodies))
	for _, b := range meta.Bodies {
		tr, err := s.LoadTrack(runID, b.Name)
		if err != nil {
			return nil, err
		}
		if tr.Mass == 0 {
			tr.Mass = b.Mass
		}
		tracks = append(tracks, tr)
	}
	return tracks, nil
}
