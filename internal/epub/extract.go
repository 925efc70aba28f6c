package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for archive entries that would be written
// outside the extraction directory.
var ErrUnsafePath = errors.New("unsafe archive entry path")

const (
	extractDirPerm  = 0o755
	extractFilePerm = 0o644
)

// Extract decompresses every entry of the archive at src into dest,
// preserving the entries' relative paths. dest must exist.
func Extract(src, dest string) (int, error) {
	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return 0, fmt.Errorf("%w: %s: %v", ErrUnsafePath, src, err)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer zr.Close()

	count := 0
	for _, f := range zr.File {
		name := normalizePath(f.Name)
		if !isSafePath(name) {
			return count, fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(name))

		if f.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(target, extractDirPerm); err != nil {
				return count, fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), extractDirPerm); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, extractFilePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	return nil
}

// isSafePath reports whether p stays inside the archive root.
func isSafePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return false
	}
	cleaned := path.Clean(p)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}
