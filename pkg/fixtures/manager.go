package fixtures

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// Manager provides read-only access to the fixture files described by a
// manifest. The index is immutable after Load, so a Manager is safe to
// share across concurrent test workers.
type Manager struct {
	baseDir string
	cases   map[string]*CaseMetadata
	order   []string

	generatedAt string
	version     string
}

// Load reads and indexes a manifest. Relative case directories are resolved
// against the manifest's own directory.
func Load(manifestPath string) (*Manager, error) {
	content, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ManifestNotFoundError{Path: manifestPath}
		}
		return nil, err
	}

	var manifest Manifest
	if err := sonic.Unmarshal(content, &manifest); err != nil {
		return nil, &ManifestParseError{Path: manifestPath, Err: err}
	}

	absPath, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		baseDir:     filepath.Dir(absPath),
		cases:       make(map[string]*CaseMetadata, len(manifest.Cases)),
		generatedAt: manifest.GeneratedAt,
		version:     manifest.Version,
	}
	for i := range manifest.Cases {
		c := &manifest.Cases[i]
		if c.CaseID == "" {
			return nil, &ManifestParseError{Path: manifestPath, Err: fmt.Errorf("case %d has empty case_id", i)}
		}
		if _, ok := m.cases[c.CaseID]; ok {
			return nil, &ManifestParseError{Path: manifestPath, Err: fmt.Errorf("duplicate case_id: %s", c.CaseID)}
		}
		if c.FileCount != len(c.Files) {
			return nil, &ManifestParseError{Path: manifestPath, Err: fmt.Errorf("case %s: file_count %d does not match %d listed files", c.CaseID, c.FileCount, len(c.Files))}
		}
		m.cases[c.CaseID] = c
		m.order = append(m.order, c.CaseID)
	}
	return m, nil
}

// Case returns the metadata for one case id.
func (m *Manager) Case(caseID string) (*CaseMetadata, error) {
	c, ok := m.cases[caseID]
	if !ok {
		return nil, &CaseNotFoundError{CaseID: caseID}
	}
	return c, nil
}

// CaseIDs returns every case id in manifest order.
func (m *Manager) CaseIDs() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// CaseSlices returns the absolute path of every file in the case, in
// manifest order. Every listed file must exist on disk; a missing file is a
// hard precondition failure, not a partial result.
func (m *Manager) CaseSlices(caseID string) ([]string, error) {
	c, err := m.Case(caseID)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(c.Files))
	for _, name := range c.Files {
		path := m.slicePath(c, name)
		if _, err := os.Stat(path); err != nil {
			return nil, &FileNotFoundError{CaseID: caseID, Path: path}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SliceByIndex returns the absolute path of the file at the given position
// in the case's slice order.
func (m *Manager) SliceByIndex(caseID string, index int) (string, error) {
	c, err := m.Case(caseID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(c.Files) {
		return "", &IndexOutOfRangeError{CaseID: caseID, Index: index, Count: len(c.Files)}
	}

	path := m.slicePath(c, c.Files[index])
	if _, err := os.Stat(path); err != nil {
		return "", &FileNotFoundError{CaseID: caseID, Path: path}
	}
	return path, nil
}

// FirstSlice returns the first slice of the case.
func (m *Manager) FirstSlice(caseID string) (string, error) {
	return m.SliceByIndex(caseID, 0)
}

// MiddleSlice returns the slice at index floor(n/2).
func (m *Manager) MiddleSlice(caseID string) (string, error) {
	c, err := m.Case(caseID)
	if err != nil {
		return "", err
	}
	return m.SliceByIndex(caseID, len(c.Files)/2)
}

// LastSlice returns the last slice of the case.
func (m *Manager) LastSlice(caseID string) (string, error) {
	c, err := m.Case(caseID)
	if err != nil {
		return "", err
	}
	return m.SliceByIndex(caseID, len(c.Files)-1)
}

// RandomSlices returns count distinct slice paths sampled uniformly without
// replacement. Output order is not specified.
func (m *Manager) RandomSlices(caseID string, count int) ([]string, error) {
	c, err := m.Case(caseID)
	if err != nil {
		return nil, err
	}
	if count > len(c.Files) {
		return nil, &InsufficientSlicesError{CaseID: caseID, Requested: count, Available: len(c.Files)}
	}

	perm := rand.Perm(len(c.Files))
	paths := make([]string, 0, count)
	for _, i := range perm[:count] {
		path := m.slicePath(c, c.Files[i])
		if _, err := os.Stat(path); err != nil {
			return nil, &FileNotFoundError{CaseID: caseID, Path: path}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ValidationError describes one missing or unreadable fixture file.
type ValidationError struct {
	CaseID string `json:"case_id"`
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// ValidationReport is the result of a full fixture pre-flight check.
type ValidationReport struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

// ValidateFiles checks every listed file of every case for existence and
// collects all problems instead of failing on the first, so a broken fixture
// set is reported in one pass.
func (m *Manager) ValidateFiles() ValidationReport {
	report := ValidationReport{Valid: true, Errors: []ValidationError{}}
	for _, id := range m.order {
		c := m.cases[id]
		for _, name := range c.Files {
			path := m.slicePath(c, name)
			if _, err := os.Stat(path); err != nil {
				report.Valid = false
				report.Errors = append(report.Errors, ValidationError{
					CaseID: id,
					File:   path,
					Reason: "file does not exist",
				})
			}
		}
	}
	return report
}

// TotalFileCount returns the sum of file counts across all cases.
func (m *Manager) TotalFileCount() int {
	total := 0
	for _, c := range m.cases {
		total += len(c.Files)
	}
	return total
}

func (m *Manager) slicePath(c *CaseMetadata, name string) string {
	dir := c.Directory
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(m.baseDir, dir)
	}
	return filepath.Join(dir, name)
}
