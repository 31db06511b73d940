//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/nesta/internal/errors"
)

// openFileNoFollowRead opens a file for reading.
// Windows has no O_NOFOLLOW; ValidateImportPath has already rejected symlinks.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, errors.NewFilesystem("open", path, err)
	}
	return f, nil
}
