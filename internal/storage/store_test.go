package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/debrisim/internal/dynamo"
	"github.com/san-kum/debrisim/internal/integrators"
	"github.com/san-kum/debrisim/internal/physics"
	"github.com/san-kum/debrisim/internal/sim"
)

func mustBody(t *testing.T, name string, pos, vel dynamo.Vec) *dynamo.Body {
	t.Helper()
	b, err := dynamo.NewBody(name, pos, vel, 100)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func record(t *testing.T, st *Store, label string, bodies ...*dynamo.Body) *Run {
	t.Helper()
	run, err := st.Create(label)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for _, b := range bodies {
		if err := run.Init(b); err != nil {
			t.Fatalf("init failed: %v", err)
		}
	}
	for step := 0; step < 3; step++ {
		for _, b := range bodies {
			b.Pos.X += 10
			if err := run.Record(float64(step)*10, b); err != nil {
				t.Fatalf("record failed: %v", err)
			}
		}
	}
	if err := run.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	meta := &RunMetadata{ID: run.ID, Label: label, Timestamp: time.Now(), Seed: 42, Dt: 10, Metrics: map[string]float64{"energy_drift": 1e-6}}
	for _, b := range bodies {
		meta.Bodies = append(meta.Bodies, BodyMetadata{Name: b.Name(), Mass: b.Mass(), Steps: 3})
	}
	if err := st.SaveMetadata(meta); err != nil {
		t.Fatalf("save metadata failed: %v", err)
	}
	return run
}

func TestRunTrackFormat(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	b := mustBody(t, "ISS", dynamo.Vec{X: 6_784_000}, dynamo.Vec{Y: 7660.5})
	run := record(t, st, "iss", b)

	if !strings.HasPrefix(run.ID, "iss_") {
		t.Errorf("expected run id prefixed with label, got %s", run.ID)
	}

	data, err := os.ReadFile(filepath.Join(run.Dir, "tracks", "ISS.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "t,x,y,z,v_x,v_y,v_z,mass" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "0,6.78401e+06,0,0,0,7660.5,0,100" {
		t.Errorf("unexpected first row %q", lines[1])
	}
}

func TestStoreLoadTrack(t *testing.T) {
	st := New(t.TempDir())
	a := mustBody(t, "particle 0", dynamo.Vec{X: 7e6}, dynamo.Vec{Y: 7500})
	b := mustBody(t, "particle 1", dynamo.Vec{Y: 7e6}, dynamo.Vec{X: -7500})
	run := record(t, st, "debris", a, b)

	tracks, err := st.LoadTracks(run.ID)
	if err != nil {
		t.Fatalf("load tracks failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}

	tr := tracks[1]
	if tr.Name != "particle 1" || tr.Len() != 3 {
		t.Errorf("unexpected track %s with %d rows", tr.Name, tr.Len())
	}
	if tr.Pos[2] != (dynamo.Vec{X: 30, Y: 7e6}) {
		t.Errorf("expected last position (30, 7e6, 0), got %v", tr.Pos[2])
	}
	if tr.Times[2] != 20 || tr.Mass != 100 {
		t.Errorf("expected t=20 mass=100, got t=%f mass=%f", tr.Times[2], tr.Mass)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first := record(t, st, "a", mustBody(t, "p", dynamo.Vec{X: 7e6}, dynamo.Vec{}))
	second := record(t, st, "a", mustBody(t, "p", dynamo.Vec{X: 7e6}, dynamo.Vec{}))
	if first.ID == second.ID {
		t.Fatal("expected distinct run ids for runs created in the same second")
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}

	latest, err := st.Latest()
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if latest != second.ID {
		t.Errorf("expected latest %s, got %s", second.ID, latest)
	}
}

func TestRecordBeforeInit(t *testing.T) {
	st := New(t.TempDir())
	run, err := st.Create("x")
	if err != nil {
		t.Fatal(err)
	}
	defer run.Close()

	b := mustBody(t, "p", dynamo.Vec{X: 7e6}, dynamo.Vec{})
	if err := run.Record(0, b); err == nil {
		t.Error("expected error recording an uninitialised track")
	}
	if err := run.Init(b); err != nil {
		t.Fatal(err)
	}
	if err := run.Init(b); err == nil {
		t.Error("expected error opening a track twice")
	}
}

func TestInitRejectsTrackFileClash(t *testing.T) {
	st := New(t.TempDir())
	run, err := st.Create("clash")
	if err != nil {
		t.Fatal(err)
	}
	defer run.Close()

	a := mustBody(t, "sat/1", dynamo.Vec{X: 7e6}, dynamo.Vec{})
	b := mustBody(t, "sat_1", dynamo.Vec{X: 8e6}, dynamo.Vec{})
	if err := run.Init(a); err != nil {
		t.Fatal(err)
	}
	if err := run.Init(b); err == nil {
		t.Fatal("expected error for names sharing a track file")
	}

	if err := run.Record(0, a); err != nil {
		t.Fatal(err)
	}
	if err := run.Close(); err != nil {
		t.Fatal(err)
	}

	tr, err := st.LoadTrack(run.ID, "sat/1")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Len() != 1 || tr.Pos[0] != (dynamo.Vec{X: 7e6}) {
		t.Errorf("expected the first body's single row, got %d rows at %v", tr.Len(), tr.Pos)
	}
}

func TestRecordReportsWriteFailure(t *testing.T) {
	st := New(t.TempDir())
	run, err := st.Create("broken")
	if err != nil {
		t.Fatal(err)
	}

	b := mustBody(t, "p", dynamo.Vec{X: 7e6}, dynamo.Vec{Y: 7500})
	if err := run.Init(b); err != nil {
		t.Fatal(err)
	}
	if err := run.Record(0, b); err != nil {
		t.Fatalf("first record failed: %v", err)
	}

	run.tracks["p"].file.Close()
	if err := run.Record(10, b); err == nil {
		t.Error("expected error recording to a closed track")
	}
	run.Close()
}

func TestRunStopsSimulationOnWriteFailure(t *testing.T) {
	st := New(t.TempDir())
	run, err := st.Create("abort")
	if err != nil {
		t.Fatal(err)
	}
	defer run.Close()

	earth, err := dynamo.NewBody("Earth", dynamo.Vec{}, dynamo.Vec{}, 5.972e24)
	if err != nil {
		t.Fatal(err)
	}
	b := mustBody(t, "ISS", dynamo.Vec{X: 6_784_000}, dynamo.Vec{Y: 7660})

	s, err := sim.New(physics.Default(), integrators.NewVerlet(), earth, []*dynamo.Body{b})
	if err != nil {
		t.Fatal(err)
	}
	s.SetRecorder(run)

	cfg := sim.Config{Dt: 10, Duration: 600, Workers: 1}
	if err := s.Start(cfg); err != nil {
		t.Fatal(err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("first step failed: %v", err)
	}

	run.tracks["ISS"].file.Close()
	err = s.Advance()
	if !errors.Is(err, dynamo.ErrRecorder) {
		t.Fatalf("expected ErrRecorder on the failing step, got %v", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) || simErr.Step != 1 {
		t.Errorf("expected SimulationError at step 1, got %v", err)
	}
}

func TestCreateFailsOnUnwritableBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(base, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(base).Create("x"); err == nil {
		t.Error("expected error when base dir is a file")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	run := record(t, st, "iss", mustBody(t, "ISS", dynamo.Vec{X: 6_784_000}, dynamo.Vec{Y: 7660}))

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, run.ID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Run.Seed != 42 || got.Run.Metrics["energy_drift"] != 1e-6 {
		t.Errorf("unexpected metadata %+v", got.Run)
	}
	if len(got.Tracks) != 1 || got.Tracks[0].Len() != 3 {
		t.Errorf("expected one track with 3 rows, got %+v", got.Tracks)
	}
}

func TestSurfaceRadiusOr(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		want   float64
	}{
		{"recorded", 3_390_000, 3_390_000},
		{"missing", 0, 6_371_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := &RunMetadata{Radius: tt.radius}
			if got := meta.SurfaceRadiusOr(6_371_000); got != tt.want {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}
