package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/hpungsan/nesta/internal/errors"
)

// ExtractZip unpacks the archive at src into dest. Entries that would land
// outside dest and symlinks are rejected.
func ExtractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return errors.NewFilesystem("open archive", src, err)
	}
	defer r.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return errors.NewFilesystem("resolve", dest, err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return errors.NewFilesystem("mkdir", root, err)
	}

	for _, f := range r.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return errors.NewFilesystem("extract", f.Name, err)
		}
		mode := f.Mode()
		switch {
		case mode&os.ModeSymlink != 0:
			return errors.NewFilesystem("extract", f.Name, fmt.Errorf("symlinks are not allowed"))
		case f.FileInfo().IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.NewFilesystem("mkdir", target, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// entryPath resolves an archive entry name under root.
func entryPath(root, name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if name == "" || strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute entry path")
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("entry escapes destination")
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.NewFilesystem("mkdir", filepath.Dir(target), err)
	}
	rc, err := f.Open()
	if err != nil {
		return errors.NewFilesystem("read archive entry", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewFilesystem("create", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return errors.NewFilesystem("write", target, err)
	}
	if err := out.Close(); err != nil {
		return errors.NewFilesystem("write", target, err)
	}
	return nil
}
