// Package storage persists simulation runs: per-run directories with a
// JSON metadata file and a CSV of final candidate states.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mlindner/cosray/internal/core"
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
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Candidates  int                `json:"candidates"`
	Source      string             `json:"source"`
	PhotonField string             `json:"photon_field"`
	Metrics     map[string]float64 `json:"metrics"`
}

var csvHeader = []string{
	"index", "tag", "id", "A", "Z", "energy_eV",
	"x_Mpc", "y_Mpc", "z_Mpc", "distance_Mpc", "weight", "reason",
}

// Save writes one run: metadata.json plus candidates.csv holding the final
// state of every primary and, recursively, its secondaries.
func (s *Store) Save(meta RunMetadata, candidates []*core.Candidate) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

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

	csvFile, err := os.Create(filepath.Join(runDir, "candidates.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for i, c := range candidates {
		if err := writeCandidate(w, i, "primary", c); err != nil {
			return "", err
		}
	}
	return runID, w.Error()
}

func writeCandidate(w *csv.Writer, index int, tag string, c *core.Candidate) error {
	if c.TagOrigin != "" {
		tag = c.TagOrigin
	}
	pos := c.Current.Position
	row := []string{
		strconv.Itoa(index),
		tag,
		strconv.Itoa(c.Current.ID),
		strconv.Itoa(core.MassNumber(c.Current.ID)),
		strconv.Itoa(core.ChargeNumber(c.Current.ID)),
		strconv.FormatFloat(c.Current.Energy/core.ElectronVolt, 'e', 6, 64),
		strconv.FormatFloat(pos.X/core.Megaparsec, 'f', 6, 64),
		strconv.FormatFloat(pos.Y/core.Megaparsec, 'f', 6, 64),
		strconv.FormatFloat(pos.Z/core.Megaparsec, 'f', 6, 64),
		strconv.FormatFloat(c.TrajectoryLength()/core.Megaparsec, 'f', 6, 64),
		strconv.FormatFloat(c.Weight, 'f', 6, 64),
		c.DeactivateReason(),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	for _, sec := range c.Secondaries {
		if err := writeCandidate(w, index, sec.TagOrigin, sec); err != nil {
			return err
		}
	}
	return nil
}

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
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// CandidateRecord is one row of a stored candidates.csv.
type CandidateRecord struct {
	Index    int
	Tag      string
	ID       int
	Energy   float64 // eV
	Distance float64 // Mpc
}

// LoadCandidates reads the final-state rows of a stored run.
func (s *Store) LoadCandidates(runID string) ([]CandidateRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "candidates.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make([]CandidateRecord, 0, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < len(csvHeader) {
			continue
		}
		index, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		id, err := strconv.Atoi(rec[2])
		if err != nil {
			continue
		}
		energy, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			continue
		}
		distance, err := strconv.ParseFloat(rec[9], 64)
		if err != nil {
			continue
		}
		out = append(out, CandidateRecord{
			Index:    index,
			Tag:      rec[1],
			ID:       id,
			Energy:   energy,
			Distance: distance,
		})
	}
	return out, nil
}

// ExportJSON writes a stored run (metadata plus candidate rows) as a single
// JSON document.
func (s *Store) ExportJSON(runID string, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	candidates, err := s.LoadCandidates(runID)
	if err != nil {
		return err
	}

	doc := struct {
		Metadata   RunMetadata       `json:"metadata"`
		Candidates []CandidateRecord `json:"candidates"`
	}{Metadata: *meta, Candidates: candidates}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
