package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/loop"
)

const (
	metadataFile = "metadata.json"
	signalsFile  = "signals.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var signalColumns = []string{"time", "reference", "disturbance", "raw", "control", "plant_input", "response"}

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
	ID               string             `json:"id"`
	Scenario         string             `json:"scenario"`
	Timestamp        time.Time          `json:"timestamp"`
	Num              []float64          `json:"num"`
	Den              []float64          `json:"den"`
	Dt               float64            `json:"dt"`
	Duration         float64            `json:"duration"`
	Gain             float64            `json:"gain"`
	DisturbanceGain  float64            `json:"disturbance_gain"`
	Saturation       loop.Saturation    `json:"saturation"`
	InitialCondition float64            `json:"initial_condition"`
	Hold             string             `json:"hold"`
	Method           string             `json:"method"`
	FeedForward      string             `json:"feed_forward"`
	Steps            int                `json:"steps"`
	Diverged         bool               `json:"diverged"`
	Metrics          Metrics            `json:"metrics"`
}

func NewMetadata(cfg *config.Config, result *loop.Result) RunMetadata {
	name := cfg.Name
	if name == "" {
		name = "custom"
	}
	return RunMetadata{
		Scenario:         name,
		Timestamp:        time.Now(),
		Num:              cfg.Plant.Num,
		Den:              cfg.Plant.Den,
		Dt:               cfg.Dt,
		Duration:         cfg.Duration,
		Gain:             cfg.Gain,
		DisturbanceGain:  cfg.DisturbanceGain,
		Saturation:       cfg.Saturation,
		InitialCondition: cfg.InitialCondition,
		Hold:             cfg.Hold,
		Method:           cfg.Method,
		FeedForward:      cfg.FeedForward.Mode,
		Steps:            result.Steps,
		Diverged:         result.Diverged,
		Metrics:          result.Metrics,
	}
}

// Save writes the run into a scratch directory and renames it into place,
// so a failed save leaves nothing behind.
func (s *Store) Save(cfg *config.Config, result *loop.Result) (string, error) {
	meta := NewMetadata(cfg, result)
	meta.ID = fmt.Sprintf("%s_%d", slug(meta.Scenario), meta.Timestamp.UnixNano())

	if err := s.Init(); err != nil {
		return "", err
	}
	tmpDir, err := os.MkdirTemp(s.baseDir, ".saving-")
	if err != nil {
		return "", err
	}
	if err := writeRun(tmpDir, meta, result); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}
	if err := os.Chmod(tmpDir, 0755); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}
	if err := os.Rename(tmpDir, filepath.Join(s.baseDir, meta.ID)); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}
	return meta.ID, nil
}

func writeRun(dir string, meta RunMetadata, result *loop.Result) error {
	err := withOutput(filepath.Join(dir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return err
	}
	return withOutput(filepath.Join(dir, signalsFile), func(w io.Writer) error {
		return WriteCSV(w, result)
	})
}

// List returns stored runs, oldest first.
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
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SignalsPath is where a run's sample table lives.
func (s *Store) SignalsPath(runID string) string {
	return filepath.Join(s.baseDir, runID, signalsFile)
}

// LoadSignals reads a run's sample table back into a Result. Metrics and
// flags come from the metadata.
func (s *Store) LoadSignals(runID string) (*loop.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(s.SignalsPath(runID))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	res := &loop.Result{Metrics: meta.Metrics, Diverged: meta.Diverged, Steps: meta.Steps}
	if len(records) < 2 {
		return res, nil
	}
	if len(records[0]) != len(signalColumns) {
		return nil, fmt.Errorf("storage: %s has %d columns, want %d", signalsFile, len(records[0]), len(signalColumns))
	}

	cols := []*[]float64{
		(*[]float64)(&res.Times),
		(*[]float64)(&res.Reference),
		(*[]float64)(&res.Disturbance),
		(*[]float64)(&res.Raw),
		(*[]float64)(&res.Control),
		(*[]float64)(&res.PlantInput),
		(*[]float64)(&res.Response),
	}
	for _, c := range cols {
		*c = make([]float64, 0, len(records)-1)
	}
	for i, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: row %d column %s: %w", i+1, signalColumns[j], err)
			}
			*cols[j] = append(*cols[j], v)
		}
	}
	return res, nil
}

func slug(name string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(name)
}
