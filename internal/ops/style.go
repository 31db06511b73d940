package ops

import (
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/hpungsan/nesta/internal/catalog"
	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/tokens"
)

// Theme option names written by install and generate.
const (
	ThemeSettingsOption     = "astra-settings"
	ThemePalettesOption     = "astra-color-palettes"
	GlobalPaletteOption     = "global-color-palette"
	TypographyPresetsOption = "astra-typography-presets"
	AdditionalCSSOption     = "additional_css"
)

// customizerSectionKey wraps the settings in exported customizer files.
const customizerSectionKey = "customizer-settings"

var hexColorRegex = regexp.MustCompile(`^#?([A-Fa-f0-9]{3}){1,2}$`)

// SanitizeHex returns value as a #-prefixed 3 or 6 digit hex color, or
// fallback when it is not one.
func SanitizeHex(value, fallback string) string {
	v := strings.TrimSpace(value)
	if !hexColorRegex.MatchString(v) {
		return fallback
	}
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	return v
}

// Brand is the visual identity applied when content is generated.
type Brand struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	TextColor      string `json:"text_color"`
	HeadingFont    string `json:"heading_font"`
	BodyFont       string `json:"body_font"`

	// LogoID is a local attachment id; 0 removes the logo
	LogoID int64 `json:"logo_id"`
}

// DefaultBrand is used for every field a pack or request leaves unset.
func DefaultBrand() Brand {
	return Brand{
		PrimaryColor:   "#d65a16",
		SecondaryColor: "#1d4ed8",
		AccentColor:    "#f97316",
		TextColor:      "#0f172a",
		HeadingFont:    "Inter",
		BodyFont:       "Inter",
	}
}

// overlay applies the non-empty fields of o on top of b.
func (b Brand) overlay(o *Brand) Brand {
	if o == nil {
		return b
	}
	b.PrimaryColor = SanitizeHex(o.PrimaryColor, b.PrimaryColor)
	b.SecondaryColor = SanitizeHex(o.SecondaryColor, b.SecondaryColor)
	b.AccentColor = SanitizeHex(o.AccentColor, b.AccentColor)
	b.TextColor = SanitizeHex(o.TextColor, b.TextColor)
	if f := tokens.SanitizeText(o.HeadingFont); f != "" {
		b.HeadingFont = f
	}
	if f := tokens.SanitizeText(o.BodyFont); f != "" {
		b.BodyFont = f
	}
	if o.LogoID > 0 {
		b.LogoID = o.LogoID
	}
	return b
}

// packBrand derives brand defaults from a pack's declared settings and its
// customizer payload. Customizer values win over declared settings.
func packBrand(b Brand, pack *catalog.Pack) Brand {
	if pack == nil {
		return b
	}
	colors := pack.Settings.Colors
	b.PrimaryColor = SanitizeHex(colors["primary"], b.PrimaryColor)
	b.SecondaryColor = SanitizeHex(colors["secondary"], b.SecondaryColor)
	b.AccentColor = SanitizeHex(colors["accent"], b.AccentColor)
	b.TextColor = SanitizeHex(colors["text"], b.TextColor)
	if f := tokens.SanitizeText(pack.Settings.Typography["heading"]); f != "" {
		b.HeadingFont = f
	}
	if f := tokens.SanitizeText(pack.Settings.Typography["body"]); f != "" {
		b.BodyFont = f
	}

	payload, err := loadCustomizer(pack, false)
	if err != nil || payload == nil {
		return b
	}
	section := customizerSection(payload)

	if palettes, ok := section[ThemePalettesOption].(map[string]any); ok {
		if set, ok := palettes["palettes"].(map[string]any); ok {
			key, _ := palettes["currentPalette"].(string)
			if colors, ok := set[key].([]any); ok && key != "" {
				targets := []*string{&b.PrimaryColor, &b.SecondaryColor, &b.AccentColor, &b.TextColor}
				for i, c := range colors {
					if i >= len(targets) {
						break
					}
					s, _ := c.(string)
					*targets[i] = SanitizeHex(s, *targets[i])
				}
			}
		}
	}

	settings, _ := section[ThemeSettingsOption].(map[string]any)
	if c := SanitizeHex(stringAt(settings, "body-color"), ""); c != "" {
		b.TextColor = c
	}
	if c := SanitizeHex(stringAt(settings, "heading-color"), ""); c != "" {
		b.AccentColor = c
	}
	if f := firstNonEmpty(stringAt(settings, "body-typography", "font-family"), stringAt(settings, "body-font-family")); f != "" {
		b.BodyFont = tokens.SanitizeText(f)
	}
	if f := firstNonEmpty(stringAt(settings, "heading-typography", "font-family"), stringAt(settings, "headings-font-family")); f != "" {
		b.HeadingFont = tokens.SanitizeText(f)
	}
	return b
}

// stringAt follows nested object keys and returns the string found, or "".
func stringAt(m map[string]any, path ...string) string {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	s, _ := cur.(string)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// loadCustomizer reads the pack's customizer payload. It returns nil when the
// pack declares none. With strict set, a missing or invalid file is an error;
// otherwise it yields nil.
func loadCustomizer(pack *catalog.Pack, strict bool) (map[string]any, error) {
	if pack.Settings.Customizer == "" && pack.Customizer == "" {
		return nil, nil
	}
	path := pack.CustomizerPath()
	if path == "" {
		if strict {
			return nil, errors.NewConfiguration("template directory missing for customizer settings")
		}
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if strict {
			return nil, errors.NewNotFound("customizer settings", path)
		}
		return nil, nil
	}

	var payload map[string]any
	if err := catalog.ReadJSON(path, &payload); err != nil || len(payload) == 0 {
		if strict {
			return nil, errors.NewParse("customizer settings file is not valid JSON", err).WithDetail("path", path)
		}
		return nil, nil
	}
	return payload, nil
}

func customizerSection(payload map[string]any) map[string]any {
	if section, ok := payload[customizerSectionKey].(map[string]any); ok {
		return section
	}
	return payload
}

// sanitizePalette keeps the valid hex colors of a palette list.
func sanitizePalette(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, c := range list {
		s, _ := c.(string)
		if hex := SanitizeHex(s, ""); hex != "" {
			out = append(out, hex)
		}
	}
	return out
}

// extractGlobalPalette reads the global palette from a customizer section, or
// converts the theme palette set when no global palette is given.
func extractGlobalPalette(section map[string]any) map[string]any {
	if global, ok := section[GlobalPaletteOption].(map[string]any); ok {
		colors := sanitizePalette(global["palette"])
		if len(colors) == 0 {
			return nil
		}
		out := make(map[string]any, len(global))
		for k, v := range global {
			out[k] = v
		}
		out["palette"] = colors
		return out
	}
	if palettes, ok := section[ThemePalettesOption].(map[string]any); ok {
		return convertThemePalette(palettes)
	}
	return nil
}

// convertThemePalette picks the current palette of a palette set, else the
// first by key order.
func convertThemePalette(palettes map[string]any) map[string]any {
	set, ok := palettes["palettes"].(map[string]any)
	if !ok || len(set) == 0 {
		return nil
	}
	key, _ := palettes["currentPalette"].(string)
	if _, ok := set[key]; !ok || key == "" {
		key = firstKey(set)
	}
	colors := sanitizePalette(set[key])
	if len(colors) == 0 {
		return nil
	}
	return map[string]any{"palette": colors}
}

func firstKey(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

// applyCustomizer writes the pack's customizer payload and additional CSS.
func applyCustomizer(database *sql.DB, pack *catalog.Pack) error {
	payload, err := loadCustomizer(pack, true)
	if err != nil {
		return err
	}
	if payload == nil {
		return nil
	}
	section := customizerSection(payload)

	for _, name := range []string{ThemeSettingsOption, ThemePalettesOption} {
		if v, ok := section[name].(map[string]any); ok {
			if err := db.SetOption(database, name, v); err != nil {
				return err
			}
		}
	}
	if global := extractGlobalPalette(section); global != nil {
		if err := db.SetOption(database, GlobalPaletteOption, global); err != nil {
			return err
		}
	}
	if v, ok := section[TypographyPresetsOption]; ok {
		switch v.(type) {
		case map[string]any, []any:
			if err := db.SetOption(database, TypographyPresetsOption, v); err != nil {
				return err
			}
		}
	}
	if mods, ok := section["theme_mods"].(map[string]any); ok {
		keys := make([]string, 0, len(mods))
		for k := range mods {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := setThemeMod(database, k, mods[k]); err != nil {
				return err
			}
		}
	}

	if path := pack.Path(pack.Settings.AdditionalCSS); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := appendAdditionalCSS(database, string(data)); err != nil {
				return err
			}
		}
	}
	if css, ok := section["custom_css"].(string); ok {
		if err := appendAdditionalCSS(database, css); err != nil {
			return err
		}
	}
	return nil
}

// appendAdditionalCSS adds css to the site's additional CSS unless it is
// already contained in it.
func appendAdditionalCSS(database *sql.DB, css string) error {
	css = strings.TrimSpace(css)
	if css == "" {
		return nil
	}
	var current string
	if _, err := db.GetOption(database, AdditionalCSSOption, &current); err != nil {
		return err
	}
	if strings.Contains(current, css) {
		return nil
	}
	return db.SetOption(database, AdditionalCSSOption, strings.TrimSpace(current+"\n\n"+css))
}

// applySiteIdentity sets the site name and logo.
func applySiteIdentity(database *sql.DB, values map[string]string, brand Brand) error {
	if name := tokens.SanitizeText(values["business_name"]); name != "" {
		if err := db.SetOption(database, SiteNameOption, name); err != nil {
			return err
		}
	}

	if brand.LogoID > 0 {
		if err := setThemeMod(database, "custom_logo", brand.LogoID); err != nil {
			return err
		}
		if err := db.SetOption(database, SiteIconOption, brand.LogoID); err != nil {
			return err
		}
	} else {
		if err := setThemeMod(database, "custom_logo", nil); err != nil {
			return err
		}
		if err := db.DeleteOption(database, SiteIconOption); err != nil {
			return err
		}
	}
	return syncLogoSettings(database, brand.LogoID)
}

// syncLogoSettings points the theme's alternate logo slots at the logo URL.
func syncLogoSettings(database *sql.DB, logoID int64) error {
	settings := map[string]any{}
	if _, err := db.GetOption(database, ThemeSettingsOption, &settings); err != nil {
		return err
	}
	if settings == nil {
		settings = map[string]any{}
	}

	logoURL := ""
	if logoID > 0 {
		if rec, err := db.GetRecord(database, logoID); err == nil && rec.IsMedia() {
			logoURL = rec.GUID
		}
	}
	settings["ast-header-retina-logo"] = logoURL
	settings["transparent-header-logo"] = logoURL
	settings["transparent-header-retina-logo"] = logoURL
	settings["different-retina-logo"] = false
	settings["different-transparent-logo"] = false
	return db.SetOption(database, ThemeSettingsOption, settings)
}

// applyBrandPalette writes the brand colors into the first four slots of the
// current theme palette and mirrors it as the global palette.
func applyBrandPalette(database *sql.DB, brand Brand) error {
	defaults := DefaultBrand()
	colors := []string{
		SanitizeHex(brand.PrimaryColor, defaults.PrimaryColor),
		SanitizeHex(brand.SecondaryColor, defaults.SecondaryColor),
		SanitizeHex(brand.AccentColor, defaults.AccentColor),
		SanitizeHex(brand.TextColor, defaults.TextColor),
	}

	option := map[string]any{}
	if _, err := db.GetOption(database, ThemePalettesOption, &option); err != nil {
		return err
	}
	if option == nil {
		option = map[string]any{}
	}
	set, _ := option["palettes"].(map[string]any)
	if len(set) == 0 {
		set = map[string]any{"palette_1": []any{}}
	}
	current, _ := option["currentPalette"].(string)
	if _, ok := set[current]; !ok || current == "" {
		current = firstKey(set)
	}

	palette, _ := set[current].([]any)
	for len(palette) < len(colors) {
		palette = append(palette, "")
	}
	for i, c := range colors {
		palette[i] = c
	}
	set[current] = palette
	option["palettes"] = set
	option["currentPalette"] = current

	if err := db.SetOption(database, ThemePalettesOption, option); err != nil {
		return err
	}
	if global := sanitizePalette(palette); len(global) > 0 {
		if err := db.SetOption(database, GlobalPaletteOption, map[string]any{"palette": global}); err != nil {
			return err
		}
	}
	return nil
}

func describeBrand(b Brand) string {
	return fmt.Sprintf("%s/%s/%s/%s", b.PrimaryColor, b.SecondaryColor, b.AccentColor, b.TextColor)
}
