package ops

import (
	"strings"

	"github.com/hpungsan/nesta/internal/catalog"
	"github.com/hpungsan/nesta/internal/errors"
)

// PackSummary is a pack without its page and settings detail.
type PackSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Version         string   `json:"version,omitempty"`
	Description     string   `json:"description,omitempty"`
	DescriptionHTML string   `json:"description_html,omitempty"`
	ScreenshotURL   string   `json:"screenshot_url,omitempty"`
	URL             string   `json:"url"`
	Pages           []string `json:"pages"`
	Installable     bool     `json:"installable"`
}

func summarize(p *catalog.Pack) PackSummary {
	pages := append([]string{}, p.PageOrder...)
	return PackSummary{
		ID:              p.ID,
		Name:            p.Name,
		Version:         p.Version,
		Description:     p.Description,
		DescriptionHTML: p.DescriptionHTML,
		ScreenshotURL:   p.ScreenshotURL,
		URL:             p.URL,
		Pages:           pages,
		Installable:     p.Bundle != nil && p.Bundle.Export != "",
	}
}

// ListPacksInput contains parameters for the ListPacks operation.
type ListPacksInput struct {
	Limit   int  // default: 20, max: 100
	Offset  int  // default: 0
	Refresh bool // rescan sources before listing
}

// ListPacksOutput contains the result of the ListPacks operation.
type ListPacksOutput struct {
	Items      []PackSummary `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// ListPacks returns pack summaries ordered by id.
func ListPacks(env *Env, input ListPacksInput) (*ListPacksOutput, error) {
	if env.Catalog == nil {
		return nil, errors.NewConfiguration("no template catalog configured")
	}
	if input.Refresh {
		env.Catalog.Refresh()
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	packs := env.Catalog.Packs()
	ids := env.Catalog.SortedIDs()
	total := len(ids)

	items := []PackSummary{}
	for i := offset; i < total && len(items) < limit; i++ {
		if p, ok := packs[ids[i]]; ok {
			items = append(items, summarize(p))
		}
	}

	return &ListPacksOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "id_asc",
	}, nil
}

// GetPackInput contains parameters for the GetPack operation.
type GetPackInput struct {
	ID string
}

// GetPack returns the full manifest of one pack.
func GetPack(env *Env, input GetPackInput) (*catalog.Pack, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("pack id is required")
	}
	if env.Catalog == nil {
		return nil, errors.NewConfiguration("no template catalog configured")
	}
	pack, ok := env.Catalog.Pack(id)
	if !ok {
		return nil, errors.NewNotFound("pack", id)
	}
	return pack, nil
}

// PageMarkupInput contains parameters for the PageMarkup operation.
type PageMarkupInput struct {
	PackID  string
	PageKey string
	Tokens  map[string]string
}

// PageMarkupOutput contains the rendered markup. Markup is "" when the pack,
// page or file is missing.
type PageMarkupOutput struct {
	PackID  string `json:"pack_id"`
	PageKey string `json:"page"`
	Markup  string `json:"markup"`
	Found   bool   `json:"found"`
}

// PageMarkup renders one pack page with tokens substituted.
func PageMarkup(env *Env, input PageMarkupInput) (*PageMarkupOutput, error) {
	if strings.TrimSpace(input.PackID) == "" || strings.TrimSpace(input.PageKey) == "" {
		return nil, errors.NewInvalidRequest("pack id and page are required")
	}
	if env.Catalog == nil {
		return nil, errors.NewConfiguration("no template catalog configured")
	}
	markup := env.Catalog.PageMarkup(input.PackID, input.PageKey, input.Tokens)
	return &PageMarkupOutput{
		PackID:  input.PackID,
		PageKey: input.PageKey,
		Markup:  markup,
		Found:   markup != "",
	}, nil
}
