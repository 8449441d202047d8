package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/orbitsim/internal/physics"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	bodyColumns  = 5
)

var (
	ErrNotFound     = errors.New("storage: run not found")
	ErrBodyMismatch = errors.New("storage: frame body count differs from run")
	ErrMalformed    = errors.New("storage: malformed states file")
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

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	TargetFPS float64            `json:"target_fps"`
	Step      float64            `json:"step"`
	Speed     float64            `json:"speed"`
	Gravity   float64            `json:"gravity"`
	Softening float64            `json:"softening"`
	Bodies    int                `json:"bodies"`
	Colors    []string           `json:"colors,omitempty"`
	Frames    int                `json:"frames"`
	Stopped   int                `json:"stopped_frames"`
	Simulated float64            `json:"simulated_seconds"`
	WallClock float64            `json:"wall_clock_seconds"`
	Metrics   map[string]float64 `json:"metrics"`
}

func (m RunMetadata) Kernel() physics.Kernel {
	return physics.Kernel{G: m.Gravity, Softening: m.Softening}
}

// NewRunID returns a unique run directory name for a preset.
func NewRunID(preset string) string {
	if preset == "" {
		preset = "custom"
	}
	return fmt.Sprintf("%s_%s", preset, uuid.NewString()[:8])
}

// Recorder writes frames of one run to disk as they arrive.
type Recorder struct {
	dir   string
	meta  RunMetadata
	file  *os.File
	w     *csv.Writer
	start time.Time
}

// Create starts a new run. meta.ID is assigned when empty.
func (s *Store) Create(meta RunMetadata) (*Recorder, error) {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Preset)
	}
	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(dir, statesFile))
	if err != nil {
		return nil, err
	}

	meta.Timestamp = time.Now()
	r := &Recorder{dir: dir, meta: meta, file: f, w: csv.NewWriter(f), start: meta.Timestamp}
	if err := r.w.Write(header(meta.Bodies)); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

// Write appends one state. A nil state counts as a stopped frame and writes
// no row.
func (r *Recorder) Write(s *physics.State) error {
	if s == nil {
		r.meta.Stopped++
		return nil
	}
	if s.Len() != r.meta.Bodies {
		return fmt.Errorf("%w: got %d, want %d", ErrBodyMismatch, s.Len(), r.meta.Bodies)
	}

	if err := r.w.Write(row(*s)); err != nil {
		return err
	}

	r.meta.Frames++
	r.meta.Simulated = s.Elapsed.Seconds()
	return nil
}

// Close flushes the states and writes metadata with the final metrics.
func (r *Recorder) Close(metrics map[string]float64) (*RunMetadata, error) {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.file.Close()
		return nil, err
	}
	if err := r.file.Close(); err != nil {
		return nil, err
	}

	r.meta.Metrics = metrics
	r.meta.WallClock = time.Since(r.start).Seconds()

	metaFile, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return nil, err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.meta); err != nil {
		return nil, err
	}

	meta := r.meta
	return &meta, nil
}

// Save records a complete run in one call.
func (s *Store) Save(meta RunMetadata, states []physics.State, metrics map[string]float64) (string, error) {
	rec, err := s.Create(meta)
	if err != nil {
		return "", err
	}
	for i := range states {
		if err := rec.Write(&states[i]); err != nil {
			rec.Close(nil)
			return "", err
		}
	}
	if _, err := rec.Close(metrics); err != nil {
		return "", err
	}
	return rec.ID(), nil
}

// List returns all runs, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads every recorded frame of a run.
func (s *Store) LoadStates(runID string) ([]physics.State, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	return ReadStates(file)
}

// ReadStates parses the CSV layout written by Recorder.
func ReadStates(r io.Reader) ([]physics.State, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}

	cols := len(records[0])
	if (cols-1)%bodyColumns != 0 {
		return nil, fmt.Errorf("%w: %d columns", ErrMalformed, cols)
	}
	n := (cols - 1) / bodyColumns

	states := make([]physics.State, 0, len(records)-1)
	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line+2, err)
			}
			vals[j] = v
		}

		st := physics.State{
			Elapsed: time.Duration(math.Round(vals[0] * float64(time.Second))),
			Bodies:  make([]physics.Body, n),
		}
		for i := 0; i < n; i++ {
			c := vals[1+i*bodyColumns:]
			st.Bodies[i] = physics.NewBody(c[0], physics.V(c[1], c[2]), physics.V(c[3], c[4]))
		}
		states = append(states, st)
	}

	return states, nil
}

func header(bodies int) []string {
	h := []string{"time"}
	for i := 0; i < bodies; i++ {
		h = append(h,
			fmt.Sprintf("m%d", i),
			fmt.Sprintf("x%d", i),
			fmt.Sprintf("y%d", i),
			fmt.Sprintf("vx%d", i),
			fmt.Sprintf("vy%d", i),
		)
	}
	return h
}

func row(s physics.State) []string {
	r := make([]string, 0, 1+bodyColumns*s.Len())
	r = append(r, formatFloat(s.Elapsed.Seconds()))
	for _, b := range s.Bodies {
		r = append(r,
			formatFloat(b.Mass),
			formatFloat(b.Position.X),
			formatFloat(b.Position.Y),
			formatFloat(b.Velocity.X),
			formatFloat(b.Velocity.Y),
		)
	}
	return r
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
