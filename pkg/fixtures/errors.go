package fixtures

import "fmt"

// ManifestNotFoundError indicates the manifest path does not exist.
type ManifestNotFoundError struct {
	Path string
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest not found: %s", e.Path)
}

// ManifestParseError indicates the manifest exists but could not be decoded.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error { return e.Err }

// CaseNotFoundError indicates the requested case id is not in the manifest.
type CaseNotFoundError struct {
	CaseID string
}

func (e *CaseNotFoundError) Error() string {
	return fmt.Sprintf("case not found: %s", e.CaseID)
}

// FileNotFoundError indicates a file listed in the manifest is missing on disk.
type FileNotFoundError struct {
	CaseID string
	Path   string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("case %s: file not found: %s", e.CaseID, e.Path)
}

// IndexOutOfRangeError indicates a slice index outside [0, FileCount).
type IndexOutOfRangeError struct {
	CaseID string
	Index  int
	Count  int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("case %s: slice index %d out of range [0, %d)", e.CaseID, e.Index, e.Count)
}

// InsufficientSlicesError indicates a random sample larger than the case.
type InsufficientSlicesError struct {
	CaseID    string
	Requested int
	Available int
}

func (e *InsufficientSlicesError) Error() string {
	return fmt.Sprintf("case %s: requested %d slices but only %d available", e.CaseID, e.Requested, e.Available)
}
