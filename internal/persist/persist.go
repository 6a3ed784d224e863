// Package persist saves and loads track pattern data to the version-1
// JSON layout, tolerant of unknown members and of a saved track count
// that no longer matches the running instance.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"midilooper/internal/engine"
)

const currentVersion = 1

// noteEvent is the wire form of engine.NoteEvent.
type noteEvent struct {
	N uint8  `json:"n"`
	V uint8  `json:"v"`
	D uint16 `json:"d"`
}

// trackDoc is the wire form of one track's persisted state.
type trackDoc struct {
	Events       [][]noteEvent `json:"events"`
	ShuffleOrder []int         `json:"shuffleOrder"`
	ShufflePos   int           `json:"shufflePos"`
	BrownianPos  int           `json:"brownianPos"`
}

// document is the top-level save file.
type document struct {
	Version   int        `json:"version"`
	NumTracks int        `json:"numTracks"`
	Tracks    []trackDoc `json:"tracks"`
}

// Marshal serializes e's track pattern data (events, shuffle state,
// Brownian position) to the version-1 layout. Engine parameters and
// runtime playback position are not part of this document.
func Marshal(e *engine.Engine) ([]byte, error) {
	doc := document{
		Version:   currentVersion,
		NumTracks: e.NumTracks,
		Tracks:    make([]trackDoc, e.NumTracks),
	}

	for t := 0; t < e.NumTracks; t++ {
		ts := e.Tracks[t]
		td := trackDoc{
			Events:       make([][]noteEvent, engine.MaxSteps),
			ShuffleOrder: make([]int, engine.MaxSteps),
			ShufflePos:   ts.ShufflePos,
			BrownianPos:  ts.BrownianPos,
		}
		for s := 0; s < engine.MaxSteps; s++ {
			evs := ts.Data.Steps[s]
			row := make([]noteEvent, evs.Count)
			for i := 0; i < evs.Count; i++ {
				row[i] = noteEvent{N: evs.Events[i].Note, V: evs.Events[i].Velocity, D: evs.Events[i].Duration}
			}
			td.Events[s] = row
		}
		copy(td.ShuffleOrder, ts.ShuffleOrder[:])
		doc.Tracks[t] = td
	}

	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal loads pattern data from data into e, tolerating a saved
// track count that differs from e.NumTracks by loading
// min(saved, allocated) tracks and skipping the rest. Unknown JSON
// members are silently ignored by encoding/json.
func Unmarshal(data []byte, e *engine.Engine) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("persist: decode: %w", err)
	}
	if doc.Version != currentVersion {
		return migrate(&doc)
	}
	return applyDocument(&doc, e)
}

// migrate handles older save versions. There is only one version today;
// this is the seam future format changes hook into without touching the
// public Unmarshal contract.
func migrate(doc *document) error {
	return fmt.Errorf("persist: unsupported save version %d", doc.Version)
}

func applyDocument(doc *document, e *engine.Engine) error {
	n := doc.NumTracks
	if n > e.NumTracks {
		n = e.NumTracks
	}
	if n > len(doc.Tracks) {
		n = len(doc.Tracks)
	}

	for t := 0; t < n; t++ {
		td := doc.Tracks[t]
		ts := e.Tracks[t]
		e.ClearTrackData(t)

		for s := 0; s < len(td.Events) && s < engine.MaxSteps; s++ {
			for _, ev := range td.Events[s] {
				e.AddStepEvent(t, s, ev.N, ev.V, ev.D)
			}
		}

		for s := 0; s < len(td.ShuffleOrder) && s < engine.MaxSteps; s++ {
			ts.ShuffleOrder[s] = td.ShuffleOrder[s]
		}
		ts.ShufflePos = td.ShufflePos
		ts.BrownianPos = td.BrownianPos
	}

	return nil
}

// SaveInfo describes a save file discovered under a project directory.
type SaveInfo struct {
	Filename  string
	Name      string
	Timestamp time.Time
}

// ProjectsDir returns the root directory all saved projects live under.
func ProjectsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "midilooper", "projects"), nil
}

// ProjectDir returns the directory for one named project.
func ProjectDir(name string) (string, error) {
	base, err := ProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, name), nil
}

// ListSaves returns a project's timestamped saves, newest first.
func ListSaves(project string) ([]SaveInfo, error) {
	dir, err := ProjectDir(project)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ".json")
		if len(base) < 19 {
			continue
		}
		ts, err := time.Parse("2006-01-02_15-04-05", base[:19])
		if err != nil {
			continue
		}
		name := ""
		if len(base) > 20 && base[19] == '_' {
			name = base[20:]
		}
		saves = append(saves, SaveInfo{Filename: entry.Name(), Name: name, Timestamp: ts})
	}

	sort.Slice(saves, func(i, j int) bool { return saves[i].Timestamp.After(saves[j].Timestamp) })
	return saves, nil
}

// Save writes e's pattern data to project, timestamped.
func Save(e *engine.Engine, project string) (string, error) {
	if project == "" {
		project = "untitled"
	}
	dir, err := ProjectDir(project)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := Marshal(e)
	if err != nil {
		return "", err
	}

	filename := time.Now().Format("2006-01-02_15-04-05") + ".json"
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a project's save (or its most recent one when filename is
// empty) into e.
func Load(e *engine.Engine, project, filename string) error {
	dir, err := ProjectDir(project)
	if err != nil {
		return err
	}

	if filename == "" {
		saves, err := ListSaves(project)
		if err != nil || len(saves) == 0 {
			return fmt.Errorf("persist: no saves found in project %q", project)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	return Unmarshal(data, e)
}
