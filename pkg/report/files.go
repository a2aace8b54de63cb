package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// atomicWriteJSON writes v to path through a temp file and rename, so a
// viewer polling the report never reads a half-written file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ReadReport reads report.json and every case detail it references.
func ReadReport(reportDir string) (*Index, []CaseDetail, error) {
	var index Index
	if err := readJSON(filepath.Join(reportDir, "report.json"), &index); err != nil {
		return nil, nil, fmt.Errorf("read index: %w", err)
	}

	details := make([]CaseDetail, len(index.Cases))
	for i, entry := range index.Cases {
		if err := readJSON(filepath.Join(reportDir, entry.DataFile), &details[i]); err != nil {
			return nil, nil, fmt.Errorf("read case %s: %w", entry.ID, err)
		}
	}
	return &index, details, nil
}
