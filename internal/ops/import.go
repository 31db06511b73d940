package ops

import (
	"context"

	"github.com/hpungsan/nesta/internal/export"
	"github.com/hpungsan/nesta/internal/importer"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required, .xml
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Path string `json:"path"`
	*importer.Result
}

// Import loads a raw export file that is not part of a pack. The install
// record is left untouched, so generate and undo ignore these records.
func Import(ctx context.Context, env *Env, input ImportInput) (*ImportOutput, error) {
	if err := ValidateImportPath(input.Path, env.Config); err != nil {
		return nil, err
	}

	f, err := openFileNoFollowRead(input.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := export.Parse(f)
	if err != nil {
		return nil, err
	}
	res, err := env.importer().Import(ctx, doc)
	if err != nil {
		return nil, err
	}

	env.logger().Info("export imported", "path", input.Path, "created", res.Created, "updated", res.Updated)
	return &ImportOutput{Path: input.Path, Result: res}, nil
}
