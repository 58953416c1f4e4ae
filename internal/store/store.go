// Package store persists simulation runs under a data directory: one
// subdirectory per run holding metadata.json and a steps.csv with the
// per-step statistics.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/rigidsim/internal/world"
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
	ID            string             `json:"id"`
	Scene         string             `json:"scene"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Dt            float64            `json:"dt"`
	Steps         int                `json:"steps"`
	Bodies        int                `json:"bodies"`
	MinIslandSize int                `json:"min_island_size"`
	Metrics       map[string]float64 `json:"metrics"`
}

// StepRecord is the CSV row for one simulation step.
type StepRecord struct {
	Step       int     `csv:"step"`
	Time       float64 `csv:"time"`
	Active     int     `csv:"active_bodies"`
	Sleeping   int     `csv:"sleeping_bodies"`
	Islands    int     `csv:"islands"`
	Contacts   int     `csv:"contacts"`
	DurationUs int64   `csv:"duration_us"`
}

// Save writes a run to a fresh run directory and returns its id.
func (s *Store) Save(scene string, cfg world.Config, seed int64, bodies int, result *world.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scene, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Scene:         scene,
		Timestamp:     time.Now(),
		Seed:          seed,
		Dt:            cfg.Dt,
		Steps:         result.StepsTaken,
		Bodies:        bodies,
		MinIslandSize: cfg.MinIslandSize,
		Metrics:       result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	records := make([]*StepRecord, len(result.Stats))
	for i, st := range result.Stats {
		records[i] = &StepRecord{
			Step:       st.Step,
			Time:       st.Time,
			Active:     st.ActiveBodies,
			Sleeping:   st.SleepingBodies,
			Islands:    st.Islands,
			Contacts:   st.Contacts,
			DurationUs: st.Duration.Microseconds(),
		}
	}

	stepsFile, err := os.Create(filepath.Join(runDir, "steps.csv"))
	if err != nil {
		return "", err
	}
	defer stepsFile.Close()

	if err := gocsv.MarshalFile(&records, stepsFile); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns the metadata of every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.LoadMetadata(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) LoadMetadata(runID string) (RunMetadata, error) {
	var meta RunMetadata
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

// LoadSteps reads a run's per-step records back from its CSV.
func (s *Store) LoadSteps(runID string) ([]*StepRecord, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "steps.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []*StepRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, err
	}
	return records, nil
}
