// Package settings is the booth's configuration provider. The pipeline never
// reads ambient state: a snapshot of these settings is handed to it at the
// start of every run.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings is the full admin-editable booth configuration.
type Settings struct {
	EventName        string `json:"eventName"`
	EventDescription string `json:"eventDescription"`
	FolderID         string `json:"folderId"`
	SelectedModel    string `json:"selectedModel"`
	OverlayImage     string `json:"overlayImage"`
	BackgroundImage  string `json:"backgroundImage"`
	AutoResetTime    int    `json:"autoResetTime"`
	AdminPIN         string `json:"adminPin"`
	Orientation      string `json:"orientation"`
	OutputRatio      string `json:"outputRatio"`
	ActiveEventID    string `json:"activeEventId,omitempty"`
	CameraRotation   int    `json:"cameraRotation"`
}

// Concept is one themed transformation offered on the booth's theme screen.
type Concept struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Prompt    string `json:"prompt"`
	Thumbnail string `json:"thumbnail"`
}

// Defaults returns the out-of-the-box configuration: portrait booth on the
// free-tier model.
func Defaults() Settings {
	return Settings{
		EventName:      "Photobooth",
		SelectedModel:  "gemini-2.5-flash-image",
		AutoResetTime:  60,
		AdminPIN:       "1234",
		Orientation:    "portrait",
		OutputRatio:    "9:16",
		CameraRotation: 0,
	}
}

// Store persists settings and the concept catalog as JSON files under one
// directory. Reads are cheap snapshots; updates rewrite the file.
type Store struct {
	dir string

	mu       sync.RWMutex
	current  Settings
	concepts []Concept
}

const (
	settingsFile = "settings.json"
	conceptsFile = "concepts.json"
)

// NewStore loads existing files from dir or seeds them with defaults.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("settings: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("settings: ensure directory: %w", err)
	}

	s := &Store{dir: dir, current: Defaults()}

	if err := readJSON(filepath.Join(dir, settingsFile), &s.current); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("settings: load: %w", err)
	}
	if err := readJSON(filepath.Join(dir, conceptsFile), &s.concepts); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("settings: load concepts: %w", err)
	}
	return s, nil
}

// Get returns a snapshot of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces the settings and persists them.
func (s *Store) Update(next Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(filepath.Join(s.dir, settingsFile), next); err != nil {
		return fmt.Errorf("settings: persist: %w", err)
	}
	s.current = next
	return nil
}

// VerifyPIN checks the plaintext admin PIN gate.
func (s *Store) VerifyPIN(pin string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pin != "" && pin == s.current.AdminPIN
}

// Concepts returns the theme catalog.
func (s *Store) Concepts() []Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Concept, len(s.concepts))
	copy(out, s.concepts)
	return out
}

// ConceptByID looks up one theme.
func (s *Store) ConceptByID(id string) (Concept, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.concepts {
		if c.ID == id {
			return c, true
		}
	}
	return Concept{}, false
}

// SetConcepts replaces the catalog and persists it.
func (s *Store) SetConcepts(concepts []Concept) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(filepath.Join(s.dir, conceptsFile), concepts); err != nil {
		return fmt.Errorf("settings: persist concepts: %w", err)
	}
	s.concepts = concepts
	return nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
