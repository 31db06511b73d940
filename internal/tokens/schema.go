package tokens

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Slot is one fillable placeholder.
type Slot struct {
	Key     string `json:"key" yaml:"key"`
	Label   string `json:"label" yaml:"label"`
	Section string `json:"section" yaml:"-"`
	Class   Class  `json:"class" yaml:"-"`
}

// Section groups slots for form rendering.
type Section struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Slots []Slot `json:"tokens" yaml:"tokens"`
}

// Schema is the ordered set of hydration sections.
type Schema struct {
	Sections []Section `json:"sections" yaml:"sections"`
}

// DefaultSchema returns the built-in schema.
func DefaultSchema() *Schema {
	s := &Schema{Sections: []Section{
		{ID: "business", Title: "Business profile", Slots: []Slot{
			{Key: "business_name", Label: "Business name"},
			{Key: "city", Label: "Primary city"},
			{Key: "phone_display", Label: "Phone number (display)"},
			{Key: "email", Label: "Support email"},
			{Key: "address", Label: "Address"},
			{Key: "service_area_1", Label: "Service area 1"},
			{Key: "service_area_2", Label: "Service area 2"},
			{Key: "service_area_3", Label: "Service area 3"},
			{Key: "service_area_4", Label: "Service area 4"},
			{Key: "service_area_5", Label: "Service area 5"},
			{Key: "service_area_6", Label: "Service area 6"},
		}},
		{ID: "hero", Title: "Hero section", Slots: []Slot{
			{Key: "hero__h1", Label: "Hero headline"},
			{Key: "hero__desc", Label: "Hero description"},
		}},
		{ID: "services", Title: "Services overview", Slots: append(numbered("services__item_%d_title", "Service %d title", "services__item_%d_desc", "Service %d description", 7),
			Slot{Key: "services__all_title", Label: "All services title"},
			Slot{Key: "services__all_desc", Label: "All services description"},
		)},
		{ID: "who", Title: "Who we are", Slots: []Slot{
			{Key: "who__title", Label: "Section title"},
			{Key: "who__body", Label: "Body copy"},
			{Key: "who__years_badge", Label: "Years badge"},
		}},
		{ID: "why", Title: "Why choose us", Slots: append([]Slot{
			{Key: "why__title", Label: "Section title"},
			{Key: "why__intro", Label: "Intro paragraph"},
		}, numbered("why__item_%d_title", "Pillar %d title", "why__item_%d_desc", "Pillar %d description", 4)...)},
		{ID: "faq", Title: "FAQ", Slots: numbered("faq__item_%d_q", "Question %d", "faq__item_%d_a", "Answer %d", 6)},
	}}
	s.index()
	return s
}

// numbered builds n pairs of slots from printf patterns.
func numbered(keyA, labelA, keyB, labelB string, n int) []Slot {
	out := make([]Slot, 0, n*2)
	for i := 1; i <= n; i++ {
		out = append(out,
			Slot{Key: fmt.Sprintf(keyA, i), Label: fmt.Sprintf(labelA, i)},
			Slot{Key: fmt.Sprintf(keyB, i), Label: fmt.Sprintf(labelB, i)},
		)
	}
	return out
}

// LoadSchema reads a YAML schema file. An empty path returns the default schema.
func LoadSchema(path string) (*Schema, error) {
	if path == "" {
		return DefaultSchema(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("token schema %s: %w", path, err)
	}
	if len(s.Sections) == 0 {
		return nil, fmt.Errorf("token schema %s: no sections", path)
	}
	for i := range s.Sections {
		for j := range s.Sections[i].Slots {
			s.Sections[i].Slots[j].Key = NormalizeKey(s.Sections[i].Slots[j].Key)
		}
	}
	s.index()
	return &s, nil
}

// index fills the derived Section and Class fields.
func (s *Schema) index() {
	for i := range s.Sections {
		for j := range s.Sections[i].Slots {
			slot := &s.Sections[i].Slots[j]
			slot.Section = s.Sections[i].ID
			slot.Class = ClassOf(slot.Key)
		}
	}
}

// Keys returns every slot key in schema order.
func (s *Schema) Keys() []string {
	var keys []string
	for _, sec := range s.Sections {
		for _, slot := range sec.Slots {
			keys = append(keys, slot.Key)
		}
	}
	return keys
}

// Lookup finds a slot by key.
func (s *Schema) Lookup(key string) (Slot, bool) {
	key = NormalizeKey(key)
	for _, sec := range s.Sections {
		for _, slot := range sec.Slots {
			if slot.Key == key {
				return slot, true
			}
		}
	}
	return Slot{}, false
}
