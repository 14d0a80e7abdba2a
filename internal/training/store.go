// Package training keeps the operator-curated examples and templates the
// generator uses as context. The collections are append-only: the
// dispatcher reads them, only the training CLI writes.
package training

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	examplesFile  = "training_data.json"
	templatesFile = "response_templates.json"
)

// Example is a recorded (original, response) pair.
type Example struct {
	OriginalEmail string    `json:"original_email"`
	Response      string    `json:"your_response"`
	EmailType     string    `json:"email_type"`
	Tone          string    `json:"tone"`
	KeyPoints     []string  `json:"key_points"`
	CreatedAt     time.Time `json:"created_date"`
}

// Template is a named, parameterized response text.
type Template struct {
	Name      string    `json:"name"`
	EmailType string    `json:"email_type"`
	Tone      string    `json:"tone"`
	Template  string    `json:"template"`
	Variables []string  `json:"variables"`
	CreatedAt time.Time `json:"created_date"`
}

type Stats struct {
	TotalExamples  int            `json:"total_examples"`
	TotalTemplates int            `json:"total_templates"`
	EmailTypes     map[string]int `json:"email_types"`
	Tones          map[string]int `json:"tones"`
}

type Store struct {
	dir string

	mu        sync.Mutex
	examples  []Example
	templates []Template
}

// Open loads the collections from dir. Missing files mean empty
// collections, not an error.
func Open(dir string) (*Store, error) {
	s := &Store{dir: dir}

	if err := loadJSON(filepath.Join(dir, examplesFile), &s.examples); err != nil {
		return nil, fmt.Errorf("loading training examples: %w", err)
	}
	if err := loadJSON(filepath.Join(dir, templatesFile), &s.templates); err != nil {
		return nil, fmt.Errorf("loading response templates: %w", err)
	}

	return s, nil
}

func (s *Store) AddExample(e Example) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.examples = append(s.examples, e)
	return saveJSON(filepath.Join(s.dir, examplesFile), s.examples)
}

func (s *Store) AddTemplate(t Template) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates = append(s.templates, t)
	return saveJSON(filepath.Join(s.dir, templatesFile), s.templates)
}

// Examples returns examples matching the given type and tone, in insertion
// order. Empty filters match everything.
func (s *Store) Examples(emailType, tone string) []Example {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Example
	for _, e := range s.examples {
		if emailType != "" && e.EmailType != emailType {
			continue
		}
		if tone != "" && e.Tone != tone {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Templates returns templates matching the given type, in insertion order.
func (s *Store) Templates(emailType string) []Template {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Template
	for _, t := range s.templates {
		if emailType != "" && t.EmailType != emailType {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		TotalExamples:  len(s.examples),
		TotalTemplates: len(s.templates),
		EmailTypes:     map[string]int{},
		Tones:          map[string]int{},
	}
	for _, e := range s.examples {
		stats.EmailTypes[e.EmailType]++
		stats.Tones[e.Tone]++
	}
	return stats
}

func loadJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dst)
}

func saveJSON(path string, src interface{}) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
