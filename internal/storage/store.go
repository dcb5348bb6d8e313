package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	metadataFile = "metadata.json"
	tracksDir    = "tracks"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type BodyMetadata struct {
	Name        string  `json:"name"`
	Mass        float64 `json:"mass"`
	Steps       int     `json:"steps"`
	Deorbited   bool    `json:"deorbited"`
	DeorbitTime float64 `json:"deorbit_time,omitempty"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Label      string             `json:"label"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Atmosphere string             `json:"atmosphere"`
	Reference  string             `json:"reference"`
	Radius     float64            `json:"surface_radius"`
	Steps      int                `json:"steps"`
	Deorbits   int                `json:"deorbits"`
	Bodies     []BodyMetadata     `json:"bodies"`
	NonFinite  []string           `json:"non_finite,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// SurfaceRadiusOr returns the recorded surface radius, or def for runs
// stored without one.
func (m *RunMetadata) SurfaceRadiusOr(def float64) float64 {
	if m.Radius > 0 {
		return m.Radius
	}
	return def
}

// Create makes a fresh run directory named <label>_<unix> and returns a
// recorder writing one track per body into it.
func (s *Store) Create(label string) (*Run, error) {
	stamp := time.Now().Unix()
	runID := fmt.Sprintf("%s_%d", label, stamp)
	for i := 1; ; i++ {
		if _, err := os.Stat(s.Dir(runID)); os.IsNotExist(err) {
			break
		}
		runID = fmt.Sprintf("%s_%d_%d", label, stamp, i)
	}

	dir := s.Dir(runID)
	if err := os.MkdirAll(filepath.Join(dir, tracksDir), 0755); err != nil {
		return nil, fmt.Errorf("create run %s: %w", runID, err)
	}
	return newRun(runID, dir), nil
}

func (s *Store) SaveMetadata(meta *RunMetadata) error {
	f, err := os.Create(filepath.Join(s.Dir(meta.ID), metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	return f.Close()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in %s", s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}
