package fixtures

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/bytedance/sonic"
)

// writeFixtureSet builds a manifest plus backing files in a temp dir and
// returns the manifest path. Layout mirrors the real fixture sets: one
// subdirectory per case, ordered slice files.
func writeFixtureSet(t *testing.T, cases map[string][]string) string {
	t.Helper()
	root := t.TempDir()

	ids := make([]string, 0, len(cases))
	for id := range cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	manifest := Manifest{
		GeneratedAt: "2026-01-15T10:00:00Z",
		Version:     "1",
	}
	for _, id := range ids {
		files := cases[id]
		dir := filepath.Join(root, id)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		for _, name := range files {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("slice"), 0644); err != nil {
				t.Fatal(err)
			}
		}
		manifest.Cases = append(manifest.Cases, CaseMetadata{
			CaseID:    id,
			Directory: id,
			FileCount: len(files),
			Files:     files,
			Metadata:  CaseInfo{Modality: "CT", BodyPart: "chest"},
		})
	}

	content, err := sonic.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "manifest.json")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifestNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var notFound *ManifestNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ManifestNotFoundError, got %v", err)
	}
}

func TestLoadManifestParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	var parseErr *ManifestParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ManifestParseError, got %v", err)
	}
}

func TestLoadRejectsFileCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	content := `{"cases":[{"case_id":"case-001","directory":"case-001","file_count":5,"files":["a.dcm"]}]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	var parseErr *ManifestParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ManifestParseError for count mismatch, got %v", err)
	}
}

func TestLoadRejectsDuplicateCaseID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	content := `{"cases":[` +
		`{"case_id":"case-001","directory":"a","file_count":0,"files":[]},` +
		`{"case_id":"case-001","directory":"b","file_count":0,"files":[]}]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate case_id")
	}
}

func TestCaseNotFound(t *testing.T) {
	mgr := mustLoad(t, writeFixtureSet(t, map[string][]string{
		"case-001": {"s0.dcm"},
	}))
	_, err := mgr.Case("case-999")
	var notFound *CaseNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected CaseNotFoundError, got %v", err)
	}
	if notFound.CaseID != "case-999" {
		t.Errorf("error names wrong case: %s", notFound.CaseID)
	}
}

func TestCaseSlicesPreservesManifestOrder(t *testing.T) {
	files := []string{"s2.dcm", "s0.dcm", "s1.dcm"} // deliberately not lexicographic
	mgr := mustLoad(t, writeFixtureSet(t, map[string][]string{"case-001": files}))

	paths, err := mgr.CaseSlices("case-001")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != len(files) {
		t.Fatalf("expected %d paths, got %d", len(files), len(paths))
	}
	for i, p := range paths {
		if filepath.Base(p) != files[i] {
			t.Errorf("position %d: expected %s, got %s", i, files[i], filepath.Base(p))
		}
		if !filepath.IsAbs(p) {
			t.Errorf("path not absolute: %s", p)
		}
	}
}

func TestLoadRelativeManifestPathYieldsAbsoluteSlices(t *testing.T) {
	path := writeFixtureSet(t, map[string][]string{"case-001": {"s0.dcm", "s1.dcm"}})
	t.Chdir(filepath.Dir(path))

	mgr := mustLoad(t, "manifest.json")
	paths, err := mgr.CaseSlices("case-001")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("path not absolute: %s", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("stat %s: %v", p, err)
		}
	}
}

func TestCaseSlicesMissingFileIsHardFailure(t *testing.T) {
	path := writeFixtureSet(t, map[string][]string{"case-001": {"s0.dcm", "s1.dcm", "s2.dcm"}})
	mgr := mustLoad(t, path)

	victim := filepath.Join(filepath.Dir(path), "case-001", "s1.dcm")
	if err := os.Remove(victim); err != nil {
		t.Fatal(err)
	}

	_, err := mgr.CaseSlices("case-001")
	var missing *FileNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("expected FileNotFoundError, got %v", err)
	}
	if filepath.Base(missing.Path) != "s1.dcm" {
		t.Errorf("error names wrong file: %s", missing.Path)
	}
}

func TestSliceByIndexBoundaries(t *testing.T) {
	mgr := mustLoad(t, writeFixtureSet(t, map[string][]string{
		"case-001": {"s0.dcm", "s1.dcm", "s2.dcm"},
	}))

	for _, index := range []int{-1, 3} {
		_, err := mgr.SliceByIndex("case-001", index)
		var oob *IndexOutOfRangeError
		if !errors.As(err, &oob) {
			t.Errorf("index %d: expected IndexOutOfRangeError, got %v", index, err)
			continue
		}
		if oob.Index != index || oob.Count != 3 {
			t.Errorf("index %d: error carries wrong context: %+v", index, oob)
		}
	}

	p, err := mgr.SliceByIndex("case-001", 2)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p) != "s2.dcm" {
		t.Errorf("expected s2.dcm, got %s", filepath.Base(p))
	}
}

func TestConvenienceAccessors(t *testing.T) {
	mgr := mustLoad(t, writeFixtureSet(t, map[string][]string{
		"case-001": {"s0.dcm", "s1.dcm", "s2.dcm", "s3.dcm", "s4.dcm"},
		"case-002": {"only.dcm"},
	}))

	first, _ := mgr.FirstSlice("case-001")
	middle, _ := mgr.MiddleSlice("case-001")
	last, _ := mgr.LastSlice("case-001")
	if filepath.Base(first) != "s0.dcm" {
		t.Errorf("first: got %s", filepath.Base(first))
	}
	if filepath.Base(middle) != "s2.dcm" {
		t.Errorf("middle of 5 should be index 2, got %s", filepath.Base(middle))
	}
	if filepath.Base(last) != "s4.dcm" {
		t.Errorf("last: got %s", filepath.Base(last))
	}

	// Single-file case: first, middle and last are the same slice.
	f, _ := mgr.FirstSlice("case-002")
	m, _ := mgr.MiddleSlice("case-002")
	l, _ := mgr.LastSlice("case-002")
	if f != m || m != l {
		t.Errorf("single-file case: first=%s middle=%s last=%s", f, m, l)
	}
}

func TestRandomSlices(t *testing.T) {
	mgr := mustLoad(t, writeFixtureSet(t, map[string][]string{
		"case-001": {"s0.dcm", "s1.dcm", "s2.dcm", "s3.dcm", "s4.dcm", "s5.dcm"},
	}))

	all, err := mgr.CaseSlices("case-001")
	if err != nil {
		t.Fatal(err)
	}
	valid := make(map[string]bool, len(all))
	for _, p := range all {
		valid[p] = true
	}

	for run := 0; run < 20; run++ {
		picked, err := mgr.RandomSlices("case-001", 4)
		if err != nil {
			t.Fatal(err)
		}
		if len(picked) != 4 {
			t.Fatalf("expected 4 slices, got %d", len(picked))
		}
		seen := make(map[string]bool)
		for _, p := range picked {
			if !valid[p] {
				t.Errorf("picked path outside case: %s", p)
			}
			if seen[p] {
				t.Errorf("duplicate path in sample: %s", p)
			}
			seen[p] = true
		}
	}
}

func TestRandomSlicesInsufficient(t *testing.T) {
	mgr := mustLoad(t, writeFixtureSet(t, map[string][]string{
		"case-001": {"s0.dcm", "s1.dcm"},
	}))

	_, err := mgr.RandomSlices("case-001", 3)
	var insufficient *InsufficientSlicesError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientSlicesError, got %v", err)
	}
	if insufficient.Requested != 3 || insufficient.Available != 2 {
		t.Errorf("error carries wrong context: %+v", insufficient)
	}
}

func TestValidateFiles(t *testing.T) {
	path := writeFixtureSet(t, map[string][]string{
		"case-001": {"s0.dcm", "s1.dcm"},
		"case-002": {"s0.dcm"},
	})
	mgr := mustLoad(t, path)

	report := mgr.ValidateFiles()
	if !report.Valid || len(report.Errors) != 0 {
		t.Fatalf("fully present set should validate: %+v", report)
	}

	victim := filepath.Join(filepath.Dir(path), "case-001", "s1.dcm")
	if err := os.Remove(victim); err != nil {
		t.Fatal(err)
	}

	report = mgr.ValidateFiles()
	if report.Valid {
		t.Error("expected valid=false with a missing file")
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %d", len(report.Errors))
	}
	if filepath.Base(report.Errors[0].File) != "s1.dcm" || report.Errors[0].CaseID != "case-001" {
		t.Errorf("error names wrong file: %+v", report.Errors[0])
	}
}

func TestTotalFileCount(t *testing.T) {
	mgr := mustLoad(t, writeFixtureSet(t, map[string][]string{
		"case-001": {"s0.dcm", "s1.dcm", "s2.dcm"},
		"case-002": {"s0.dcm"},
		"case-003": {"s0.dcm", "s1.dcm"},
	}))

	if got := mgr.TotalFileCount(); got != 6 {
		t.Errorf("expected 6 total files, got %d", got)
	}

	// Cross-check against per-case slice listings.
	sum := 0
	for _, id := range mgr.CaseIDs() {
		paths, err := mgr.CaseSlices(id)
		if err != nil {
			t.Fatal(err)
		}
		sum += len(paths)
	}
	if sum != mgr.TotalFileCount() {
		t.Errorf("sum of case slices %d != total %d", sum, mgr.TotalFileCount())
	}
}

func mustLoad(t *testing.T, path string) *Manager {
	t.Helper()
	mgr, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return mgr
}
