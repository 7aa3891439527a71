package fixtures

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Format identifies the on-disk encoding of a medical image file.
type Format string

const (
	FormatDICOM   Format = "dicom"
	FormatNIfTI   Format = "nifti"
	FormatNIfTIGz Format = "nifti-gz"
	FormatUnknown Format = "unknown"
)

// DICOM part 10 files carry "DICM" after a 128-byte preamble. NIfTI-1 files
// carry the datatype magic at byte 344 of the 348-byte header.
const (
	dicomMagicOffset = 128
	niftiMagicOffset = 344
	sniffLen         = 348
)

var (
	dicomMagic   = []byte("DICM")
	nifti1Magic  = []byte("n+1\x00")
	nifti1Paired = []byte("ni1\x00")
	gzipMagic    = []byte{0x1f, 0x8b}
)

// DetectFormat sniffs the file's signature bytes. Gzip content is reported
// as compressed NIfTI, the only gzipped format the fixture sets carry.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return FormatUnknown, err
	}
	return SniffFormat(buf[:n]), nil
}

// SniffFormat classifies raw header bytes.
func SniffFormat(header []byte) Format {
	if len(header) >= dicomMagicOffset+len(dicomMagic) &&
		bytes.Equal(header[dicomMagicOffset:dicomMagicOffset+len(dicomMagic)], dicomMagic) {
		return FormatDICOM
	}
	if len(header) >= niftiMagicOffset+len(nifti1Magic) {
		magic := header[niftiMagicOffset : niftiMagicOffset+len(nifti1Magic)]
		if bytes.Equal(magic, nifti1Magic) || bytes.Equal(magic, nifti1Paired) {
			return FormatNIfTI
		}
	}
	if len(header) >= len(gzipMagic) && bytes.Equal(header[:len(gzipMagic)], gzipMagic) {
		return FormatNIfTIGz
	}
	return FormatUnknown
}
