// Package fetcher reads the tabular inputs of the ingestion pipeline:
// zipped registry extracts, delimited text files in legacy encodings, and
// the territory assignment spreadsheet.
package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// StageArchive extracts a registry archive into a fresh, uniquely named
// temporary directory and returns the extracted file paths (sorted for a
// stable authority order) together with a cleanup function. Each invocation
// gets its own directory, so concurrent ingestions never share scratch
// space. Callers must run cleanup on every exit path.
func StageArchive(zipPath string) (paths []string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "territory-extract-*")
	if err != nil {
		return nil, nil, eris.Wrap(err, "zip: create scratch dir")
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	paths, err = ExtractZIP(zipPath, dir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	sort.Strings(paths)
	return paths, cleanup, nil
}

// ExtractZIP extracts all files from a ZIP archive to the destination
// directory and returns the extracted file paths.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var extracted []string
	for _, f := range r.File {
		path, err := extractZIPEntry(f, destDir)
		if err != nil {
			return extracted, err
		}
		if path != "" {
			extracted = append(extracted, path)
		}
	}

	return extracted, nil
}

// extractZIPEntry extracts a single zip.File to the destination directory.
// Returns the extracted file path, or empty string for directories.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	// Sanitize against zip slip
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return "", eris.Wrap(err, "zip: create directory")
		}
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrap(err, "zip: write file")
	}

	return destPath, nil
}
