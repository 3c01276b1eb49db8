// Package romloader loads program images from disk, including images packed
// inside compressed archives (ZIP, 7z, gzip, tar.gz, RAR).
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// Container signatures.
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// maxProgramSize is the whole CPU address space. Larger images can never be
// mapped.
const maxProgramSize = 0x10000

// programExts are the extensions accepted as raw program images.
var programExts = []string{".bin", ".amu"}

var (
	// ErrNoProgramFile is returned when an archive holds no program image.
	ErrNoProgramFile = errors.New("no program image found in archive")

	// ErrUnsupportedFormat is returned for files that are neither a program
	// image nor a known archive.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when a program exceeds the address space.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

type formatType int

const (
	formatUnknown formatType = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
)

func (f formatType) String() string {
	switch f {
	case formatRaw:
		return "raw"
	case formatZIP:
		return "zip"
	case format7z:
		return "7z"
	case formatGzip:
		return "gzip"
	case formatRAR:
		return "rar"
	}
	return "unknown"
}

// signatures are checked in order against the start of the file.
var signatures = []struct {
	magic  []byte
	format formatType
}{
	{magicZIP, formatZIP},
	{magicZIPEnd, formatZIP},
	{magicRAR, formatRAR},
	{magic7z, format7z},
	{magicGzip, formatGzip},
}

// extFormats is the fallback when no signature matches.
var extFormats = map[string]formatType{
	".bin": formatRaw,
	".amu": formatRaw,
	".zip": formatZIP,
	".7z":  format7z,
	".gz":  formatGzip,
	".tgz": formatGzip,
	".rar": formatRAR,
}

// LoadProgram loads a program image from path, extracting it from an archive
// when needed. It returns the image and its file name for display.
func LoadProgram(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, "", fmt.Errorf("failed to read file header: %w", err)
	}
	format := detectFormat(header[:n], path)
	glog.V(1).Infof("%s: detected %s", filepath.Base(path), format)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("failed to seek file: %w", err)
	}

	switch format {
	case formatRaw:
		data, err := limitedRead(f)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read program: %w", err)
		}
		return data, filepath.Base(path), nil
	case formatZIP:
		return extractFromZIP(path)
	case format7z:
		return extractFrom7z(path)
	case formatGzip:
		return extractFromGzip(f, path)
	case formatRAR:
		return extractFromRAR(path)
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// detectFormat identifies a file by extension for raw program images, then by
// signature, then by archive extension. Raw images are headerless and their
// opening bytes can spell an archive signature (JMP $034B is "PK\x03\x04"),
// so a program extension always wins.
func detectFormat(header []byte, path string) formatType {
	ext := strings.ToLower(filepath.Ext(path))
	if extFormats[ext] == formatRaw {
		return formatRaw
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(header, sig.magic) {
			return sig.format
		}
	}
	return extFormats[ext]
}

// isProgramFile reports whether name has a program image extension.
func isProgramFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range programExts {
		if ext == e {
			return true
		}
	}
	return false
}

// limitedRead reads all of r, failing with ErrFileTooLarge past
// maxProgramSize bytes.
func limitedRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxProgramSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxProgramSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
