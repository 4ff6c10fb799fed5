package graph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ingestion reads entity and triple files into a store. Supported formats
// by extension: .yaml/.yml (a list of records), .json (an array), and
// .jsonl/.ndjson (one record per line). Entities must be loaded before
// triples unless the store allows placeholders; the first structural error
// aborts the batch.

// LoadEntitiesFile reads an entities file into the store.
func LoadEntitiesFile(s *Store, path string) (int, error) {
	var entities []Entity
	if err := decodeFile(path, &entities, func(line []byte) error {
		var e Entity
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		entities = append(entities, e)
		return nil
	}); err != nil {
		return 0, err
	}

	for i, e := range entities {
		if err := s.AddEntity(e); err != nil {
			return i, fmt.Errorf("%s: entity %d (%s): %w", filepath.Base(path), i+1, e.ID, err)
		}
	}
	return len(entities), nil
}

// LoadTriplesFile reads a triples file into the store.
func LoadTriplesFile(s *Store, path string) (int, error) {
	var triples []Triple
	if err := decodeFile(path, &triples, func(line []byte) error {
		var t Triple
		if err := json.Unmarshal(line, &t); err != nil {
			return err
		}
		triples = append(triples, t)
		return nil
	}); err != nil {
		return 0, err
	}

	for i, t := range triples {
		if err := s.AddTriple(t); err != nil {
			return i, fmt.Errorf("%s: triple %d (%s -%s-> %s): %w",
				filepath.Base(path), i+1, t.Subject, t.Relation, t.Object, err)
		}
	}
	return len(triples), nil
}

// Load builds a fresh store from an entities file and a triples file.
func Load(entitiesPath, triplesPath string, opts ...StoreOption) (*Store, error) {
	s := NewStore(opts...)
	if _, err := LoadEntitiesFile(s, entitiesPath); err != nil {
		return nil, err
	}
	if _, err := LoadTriplesFile(s, triplesPath); err != nil {
		return nil, err
	}
	return s, nil
}

// decodeFile dispatches on the file extension. The slice pointer receives
// YAML/JSON array contents; perLine handles one JSONL record.
func decodeFile(path string, out any, perLine func([]byte) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return nil
	case ".json":
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return nil
	case ".jsonl", ".ndjson":
		scanner := bufio.NewScanner(strings.NewReader(string(data)))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := perLine([]byte(line)); err != nil {
				return fmt.Errorf("%s:%d: %w", filepath.Base(path), lineNo, err)
			}
		}
		return scanner.Err()
	default:
		return fmt.Errorf("%s: unsupported extension %q", filepath.Base(path), filepath.Ext(path))
	}
}
