package epub

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// StoreThreshold is the size below which entries are stored rather than
// deflated.
const StoreThreshold = 23

// Every entry carries the MS-DOS timestamp 1980-01-01 00:00:00 so identical
// trees pack to identical bytes. It is written through the legacy header
// fields: a non-zero FileHeader.Modified makes archive/zip add an extended
// timestamp extra field, and the mimetype entry must have none.
const (
	entryDate = 1<<5 | 1 // year 1980 (0), month 1, day 1
	entryTime = 0
)

// PackResult summarizes a written archive.
type PackResult struct {
	Entries    int
	Stored     int
	Deflated   int
	ByteCount  int64
	OutputPath string
}

// Pack writes the directory tree at dir as an EPUB archive at outPath.
// The mimetype entry is written first and always stored; every other
// regular file follows in lexical order, stored when smaller than
// StoreThreshold and deflated at maximum compression otherwise.
func Pack(dir, outPath string) (PackResult, error) {
	res := PackResult{OutputPath: outPath}

	mimetypePath := filepath.Join(dir, "mimetype")
	if _, err := os.Stat(mimetypePath); err != nil {
		return res, fmt.Errorf("%w: %v", ErrMimetypeNotFound, err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return res, fmt.Errorf("failed to create output file: %w", err)
	}

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	werr := packTree(zw, dir, mimetypePath, &res)
	if cerr := zw.Close(); werr == nil && cerr != nil {
		werr = fmt.Errorf("finalize archive: %w", cerr)
	}
	if cerr := f.Close(); werr == nil && cerr != nil {
		werr = fmt.Errorf("close output file: %w", cerr)
	}
	if werr != nil {
		return res, werr
	}

	if info, err := os.Stat(outPath); err == nil {
		res.ByteCount = info.Size()
	}
	return res, nil
}

func packTree(zw *zip.Writer, dir, mimetypePath string, res *PackResult) error {
	if err := addFile(zw, mimetypePath, "mimetype", zip.Store, res); err != nil {
		return err
	}

	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == mimetypePath {
			return nil
		}
		if !d.Type().IsRegular() {
			return fmt.Errorf("unsupported file type in package tree: %s", p)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return addFile(zw, p, filepath.ToSlash(rel), compressionMethod(info.Size()), res)
	})
}

// compressionMethod picks Store for files too small to benefit from Deflate.
func compressionMethod(size int64) uint16 {
	if size < StoreThreshold {
		return zip.Store
	}
	return zip.Deflate
}

func addFile(zw *zip.Writer, src, name string, method uint16, res *PackResult) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	header := &zip.FileHeader{
		Name:         name,
		Method:       method,
		ModifiedDate: entryDate, //nolint:staticcheck // Modified adds an extra field
		ModifiedTime: entryTime, //nolint:staticcheck
	}
	header.SetMode(0o644)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}

	res.Entries++
	switch method {
	case zip.Store:
		res.Stored++
	case zip.Deflate:
		res.Deflated++
	}
	return nil
}
