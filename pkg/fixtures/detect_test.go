package fixtures

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func dicomBytes() []byte {
	b := make([]byte, 200)
	copy(b[128:], "DICM")
	return b
}

func niftiBytes(magic string) []byte {
	b := make([]byte, 348)
	copy(b[344:], magic)
	return b
}

func gzipBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(niftiBytes("n+1\x00")); err != nil {
		t.Fatal(err)
	}
	w.Close()
	return buf.Bytes()
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Format
	}{
		{"dicom", dicomBytes(), FormatDICOM},
		{"nifti single", niftiBytes("n+1\x00"), FormatNIfTI},
		{"nifti paired", niftiBytes("ni1\x00"), FormatNIfTI},
		{"nifti gz", []byte{0x1f, 0x8b, 0x08, 0x00}, FormatNIfTIGz},
		{"empty", nil, FormatUnknown},
		{"short", []byte("DICM"), FormatUnknown},
		{"garbage", bytes.Repeat([]byte{0xab}, 400), FormatUnknown},
	}
	for _, tt := range tests {
		if got := SniffFormat(tt.header); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestDetectFormatFromDisk(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, content []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	if f, err := DetectFormat(write("a.dcm", dicomBytes())); err != nil || f != FormatDICOM {
		t.Errorf("dcm: got %s, %v", f, err)
	}
	if f, err := DetectFormat(write("b.nii", niftiBytes("n+1\x00"))); err != nil || f != FormatNIfTI {
		t.Errorf("nii: got %s, %v", f, err)
	}
	if f, err := DetectFormat(write("c.nii.gz", gzipBytes(t))); err != nil || f != FormatNIfTIGz {
		t.Errorf("nii.gz: got %s, %v", f, err)
	}
	// Files smaller than the sniff window must still classify cleanly.
	if f, err := DetectFormat(write("d.bin", []byte{0x1f, 0x8b})); err != nil || f != FormatNIfTIGz {
		t.Errorf("tiny gz: got %s, %v", f, err)
	}
	if f, err := DetectFormat(write("empty.bin", nil)); err != nil || f != FormatUnknown {
		t.Errorf("empty: got %s, %v", f, err)
	}

	if _, err := DetectFormat(filepath.Join(dir, "missing.dcm")); err == nil {
		t.Error("expected error for missing file")
	}
}
