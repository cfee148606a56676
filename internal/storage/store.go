// Package storage persists simulation and analysis runs on disk and keeps
// the rider's best power records in SQLite.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/cycledyn/internal/dynamo"
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
	Kind        string             `json:"kind"` // simulate, analyze
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Rider       dynamo.Rider       `json:"rider"`
	Environment dynamo.Environment `json:"environment"`
	Dt          float64            `json:"dt,omitempty"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator,omitempty"`
	Controller  string             `json:"controller,omitempty"`
	Source      string             `json:"source,omitempty"`
	Columns     []string           `json:"columns"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Series is a table of float columns stored as series.csv.
type Series struct {
	Columns []string
	Rows    [][]float64
}

// Column returns one column by name.
func (s *Series) Column(name string) ([]float64, bool) {
	idx := -1
	for i, c := range s.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, true
}

// ResultSeries lays out a ride simulation as time, distance, speed, power.
func ResultSeries(result *dynamo.Result) *Series {
	s := &Series{Columns: []string{"time", "distance", "speed", "power"}}
	for i, x := range result.States {
		row := []float64{result.Times[i]}
		row = append(row, x...)
		switch {
		case i < len(result.Controls) && len(result.Controls[i]) > 0:
			row = append(row, result.Controls[i][0])
		case i > 0 && len(result.Controls) > 0 && len(result.Controls[i-1]) > 0:
			row = append(row, result.Controls[i-1][0])
		default:
			row = append(row, 0)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// Save writes metadata.json and series.csv under a new run directory and
// returns the run ID.
func (s *Store) Save(meta RunMetadata, series *Series) (string, error) {
	if meta.Kind == "" {
		meta.Kind = "run"
	}
	meta.ID = fmt.Sprintf("%s_%s", meta.Kind, uuid.NewString())
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Columns = series.Columns

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, "series.csv"), series); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSeries(path string, series *Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(series.Columns); err != nil {
		f.Close()
		return err
	}
	for _, r := range series.Rows {
		row := make([]string, len(r))
		for i, val := range r {
			row[i] = strconv.FormatFloat(val, 'f', 6, 64)
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Series{}, nil
	}

	series := &Series{Columns: records[0], Rows: make([][]float64, 0, len(records)-1)}
	for i := 1; i < len(records); i++ {
		row := make([]float64, len(records[i]))
		for j, field := range records[i] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s line %d: %w", runID, i+1, err)
			}
			row[j] = val
		}
		series.Rows = append(series.Rows, row)
	}
	return series, nil
}

// CSVPath is where a run's series lives.
func (s *Store) CSVPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "series.csv")
}

type ExportData struct {
	RunMetadata
	Steps int                  `json:"steps"`
	Data  map[string][]float64 `json:"data"`
}

// ExportJSON writes a run's metadata and series, one array per column.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := ExportData{RunMetadata: *meta, Steps: len(series.Rows), Data: make(map[string][]float64)}
	for _, c := range series.Columns {
		data.Data[c], _ = series.Column(c)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
