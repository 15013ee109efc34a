package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
)

// Export is the project backup format: every file plus the list of paths.
type Export struct {
	Files     map[string]string `json:"files"`
	Structure []string          `json:"structure"`
}

// Export captures the whole project.
func (s *Snapshot) Export() Export {
	return Export{
		Files:     s.Contents(),
		Structure: s.Paths(),
	}
}

// WriteJSON writes the backup as indented JSON.
func (e Export) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// ReadExport decodes a backup.
func ReadExport(r io.Reader) (Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return Export{}, fmt.Errorf("decode project backup: %w", err)
	}
	if e.Files == nil {
		e.Files = map[string]string{}
	}
	return e, nil
}

// Import replaces the project with the files of e. Paths listed in Structure but
// missing from Files are created empty. It returns the number of files loaded.
func (s *Snapshot) Import(e Export) (int, error) {
	incoming := make(map[string]string, len(e.Files))
	for p, content := range e.Files {
		key, err := Normalize(p)
		if err != nil {
			return 0, err
		}
		incoming[key] = content
	}
	for _, p := range e.Structure {
		key, err := Normalize(p)
		if err != nil {
			return 0, err
		}
		if _, ok := incoming[key]; !ok {
			incoming[key] = ""
		}
	}

	for _, p := range s.Paths() {
		if _, keep := incoming[p]; !keep {
			if err := s.Delete(p); err != nil {
				return 0, err
			}
		}
	}
	for p, content := range incoming {
		if _, err := s.Set(p, content); err != nil {
			return 0, err
		}
	}
	return len(incoming), nil
}
