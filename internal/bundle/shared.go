package bundle

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// SharedUploadsFile is the archive name used by packs that share one media bundle.
const SharedUploadsFile = "uploads.zip"

// SharedAssets materializes the shared media archive in a persistent location.
type SharedAssets struct {
	// Dir is the persistent directory that holds the archive
	Dir string

	// BundledPath is a copy shipped with the packs, may be ""
	BundledPath string

	// URL is the download fallback, may be ""
	URL string

	Fetcher Fetcher
}

// Path is where the persistent copy lives.
func (s *SharedAssets) Path() string {
	return filepath.Join(s.Dir, SharedUploadsFile)
}

// Ensure returns a readable path to the shared archive: the persistent copy,
// else a copy of the bundled file, else a download. It returns "" when none
// of these is available.
func (s *SharedAssets) Ensure(ctx context.Context) string {
	target := s.Path()
	if fileExists(target) {
		return target
	}

	if s.BundledPath != "" && fileExists(s.BundledPath) {
		if err := os.MkdirAll(s.Dir, 0755); err != nil {
			return s.BundledPath
		}
		if err := copyFile(s.BundledPath, target); err != nil || !fileExists(target) {
			return s.BundledPath
		}
		return target
	}

	if s.URL == "" || s.Fetcher == nil {
		return ""
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return ""
	}
	tmp, err := Download(ctx, s.Fetcher, s.URL)
	if err != nil {
		return ""
	}
	defer os.Remove(tmp)

	if err := copyFile(tmp, target); err != nil || !fileExists(target) {
		return ""
	}
	return target
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
