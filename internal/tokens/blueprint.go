package tokens

import "fmt"

// Blueprint describes a page that can be created from a reusable component or
// an existing source page, with its own token set.
type Blueprint struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`

	// Component is the title of the reusable component the page is detached from
	Component string `json:"component,omitempty"`

	// LegacyComponent is renamed to Component during install when Component is missing
	LegacyComponent string `json:"legacy_component,omitempty"`

	// SourceSlug names an existing page whose content and metadata are copied
	SourceSlug string `json:"source_slug,omitempty"`

	Slots []Slot `json:"tokens"`
}

// Keys returns the blueprint's slot keys in order.
func (b *Blueprint) Keys() []string {
	keys := make([]string, len(b.Slots))
	for i, s := range b.Slots {
		keys[i] = s.Key
	}
	return keys
}

// Hydrate replaces every blueprint placeholder, using "" for missing values.
// Values are sanitized by key class.
func (b *Blueprint) Hydrate(content string, values map[string]string) string {
	clean := make(map[string]string, len(b.Slots))
	for _, s := range b.Slots {
		if v, ok := values[s.Key]; ok {
			clean[s.Key] = Sanitize(s.Key, v)
		}
	}
	return ReplaceExact(content, b.Keys(), clean)
}

// Blueprints returns the built-in page blueprints keyed by id.
func Blueprints() map[string]*Blueprint {
	service := &Blueprint{
		ID:              "service",
		Label:           "Service page",
		Description:     "Highlights a single offering with hero, benefits, and contact prompts.",
		Component:       "Service Page Synced",
		LegacyComponent: "Service Page",
		Slots: []Slot{
			{Key: "service__name", Label: "Service name"},
			{Key: "service__hero_desc", Label: "Hero description"},
			{Key: "service__info_title", Label: "Overview title"},
			{Key: "service__info_body_1", Label: "Overview body 1"},
			{Key: "service__info_body_2", Label: "Overview body 2"},
			{Key: "service__problems_title", Label: "Problems section title"},
		},
	}
	for i := 1; i <= 8; i++ {
		service.Slots = append(service.Slots, Slot{
			Key:   fmt.Sprintf("service__problems_item_%d", i),
			Label: fmt.Sprintf("Problem %d", i),
		})
	}
	for i := 1; i <= 8; i++ {
		service.Slots = append(service.Slots,
			Slot{Key: fmt.Sprintf("service__faq_%d_q", i), Label: fmt.Sprintf("FAQ #%d question", i)},
			Slot{Key: fmt.Sprintf("service__faq_%d_a", i), Label: fmt.Sprintf("FAQ #%d answer", i)},
		)
	}

	location := &Blueprint{
		ID:          "location",
		Label:       "Location page",
		Description: "Showcase a regional hub with service areas, hours, and directions.",
		SourceSlug:  "location-template",
		Slots: []Slot{
			{Key: "location__hero_headline", Label: "Hero headline"},
			{Key: "location__hero_summary", Label: "Hero summary"},
			{Key: "location__cta_label", Label: "Primary CTA label"},
			{Key: "location__cta_url", Label: "Primary CTA link"},
			{Key: "location__neighborhoods", Label: "Service areas / neighborhoods"},
			{Key: "location__hours", Label: "Hours of operation"},
			{Key: "location__address", Label: "Address details"},
			{Key: "location__team_intro", Label: "Team introduction"},
			{Key: "location__contact_phone", Label: "Phone number"},
			{Key: "location__contact_email", Label: "Contact email"},
		},
	}

	for _, bp := range []*Blueprint{service, location} {
		for i := range bp.Slots {
			bp.Slots[i].Section = bp.ID
			bp.Slots[i].Class = ClassOf(bp.Slots[i].Key)
		}
	}
	return map[string]*Blueprint{service.ID: service, location.ID: location}
}
