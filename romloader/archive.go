package romloader

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/nwaples/rardecode/v2"
)

// entry is one archive member. open is only called for program files.
type entry struct {
	name  string
	isDir bool
	open  func() (io.ReadCloser, error)
}

// errEndOfArchive ends an entry walk.
var errEndOfArchive = errors.New("end of archive")

// firstProgram walks entries until it finds a program image and reads it.
// next returns errEndOfArchive when the archive is exhausted.
func firstProgram(kind string, next func() (entry, error)) ([]byte, string, error) {
	for {
		e, err := next()
		if errors.Is(err, errEndOfArchive) {
			return nil, "", ErrNoProgramFile
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s entry: %w", kind, err)
		}
		if e.isDir || !isProgramFile(e.name) {
			continue
		}

		rc, err := e.open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", e.name, err)
		}
		data, err := limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", e.name, err)
		}
		return data, filepath.Base(e.name), nil
	}
}

// sliceEntries iterates over an in-memory file list.
func sliceEntries[F any](files []F, convert func(F) entry) func() (entry, error) {
	i := 0
	return func() (entry, error) {
		if i >= len(files) {
			return entry{}, errEndOfArchive
		}
		i++
		return convert(files[i-1]), nil
	}
}

// streamEntries adapts a sequential reader whose members are read in place.
func streamEntries(r io.Reader, advance func() (string, bool, error)) func() (entry, error) {
	return func() (entry, error) {
		name, isDir, err := advance()
		if err == io.EOF {
			return entry{}, errEndOfArchive
		}
		if err != nil {
			return entry{}, err
		}
		return entry{
			name:  name,
			isDir: isDir,
			open:  func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
		}, nil
	}
}

func extractFromZIP(path string) ([]byte, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	return firstProgram("zip", sliceEntries(r.File, func(f *zip.File) entry {
		return entry{name: f.Name, isDir: f.FileInfo().IsDir(), open: f.Open}
	}))
}

func extractFrom7z(path string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open 7z: %w", err)
	}
	defer r.Close()

	return firstProgram("7z", sliceEntries(r.File, func(f *sevenzip.File) entry {
		return entry{name: f.Name, isDir: f.FileInfo().IsDir(), open: f.Open}
	}))
}

func extractFromRAR(path string) ([]byte, string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open rar: %w", err)
	}
	defer r.Close()

	return firstProgram("rar", streamEntries(r, func() (string, bool, error) {
		h, err := r.Next()
		if err != nil {
			return "", false, err
		}
		return h.Name, h.IsDir, nil
	}))
}

func extractFromTar(r io.Reader) ([]byte, string, error) {
	tr := tar.NewReader(r)
	return firstProgram("tar", streamEntries(tr, func() (string, bool, error) {
		h, err := tr.Next()
		if err != nil {
			return "", false, err
		}
		return h.Name, h.Typeflag != tar.TypeReg, nil
	}))
}

// extractFromGzip decompresses a gzip file. A tarball inside is searched for
// the first program image; anything else is taken as the image itself.
func extractFromGzip(f *os.File, path string) ([]byte, string, error) {
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open gzip: %w", err)
	}
	defer zr.Close()

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return extractFromTar(zr)
	}

	data, err := limitedRead(zr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decompress: %w", err)
	}
	name := zr.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return data, name, nil
}
