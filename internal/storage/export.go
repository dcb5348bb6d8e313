package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run    *RunMetadata `json:"run"`
	Tracks []*Track     `json:"tracks"`
}

// ExportJSON writes the run's metadata and all tracks as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tracks, err := s.LoadTracks(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Tracks: tracks})
}
