package ops

import (
	"sort"

	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/tokens"
)

// SchemaOutput describes every fillable token.
type SchemaOutput struct {
	Sections   []tokens.Section    `json:"sections"`
	Blueprints []*tokens.Blueprint `json:"blueprints"`
}

// Schema returns the hydration sections and the page blueprints, ordered by id.
func Schema(env *Env) *SchemaOutput {
	bps := tokens.Blueprints()
	out := &SchemaOutput{
		Sections:   env.schema().Sections,
		Blueprints: make([]*tokens.Blueprint, 0, len(bps)),
	}
	for _, bp := range bps {
		out.Blueprints = append(out.Blueprints, bp)
	}
	sort.Slice(out.Blueprints, func(i, j int) bool { return out.Blueprints[i].ID < out.Blueprints[j].ID })
	return out
}

// StatusOutput summarizes the site's install state.
type StatusOutput struct {
	Installed  bool              `json:"installed"`
	Generation *Generation       `json:"generation,omitempty"`
	Branding   *Branding         `json:"branding,omitempty"`
	Checksums  map[string]string `json:"checksums"`
	Menu       *db.Menu          `json:"menu,omitempty"`
}

// Status reports the install record, the last branding, the sync ledger and
// the primary menu.
func Status(env *Env) (*StatusOutput, error) {
	gen, err := LoadGeneration(env.DB)
	if err != nil {
		return nil, err
	}
	out := &StatusOutput{Installed: !gen.Empty()}
	if out.Installed {
		out.Generation = gen
	}

	var branding Branding
	found, err := db.GetOption(env.DB, BrandingOption, &branding)
	if err != nil {
		return nil, err
	}
	if found {
		out.Branding = &branding
	}

	if out.Checksums, err = (db.LedgerStore{DB: env.DB}).LoadLedger(); err != nil {
		return nil, err
	}

	menu, err := db.GetMenuByLocation(env.DB, PrimaryLocation)
	switch {
	case err == nil:
		out.Menu = menu
	case !errors.Is(err, errors.ErrNotFound):
		return nil, err
	}
	return out, nil
}
