package content

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "About Us", "about-us"},
		{"punctuation", "Plumbing & Heating!", "plumbing-heating"},
		{"markup", "<b>Contact</b> Page", "contact-page"},
		{"entity", "Tom &amp; Jerry", "tom-jerry"},
		{"leading/trailing", "  --Home--  ", "home"},
		{"unicode", "Café Menü", "café-menü"},
		{"digits", "24/7 Service", "24-7-service"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	if got := NormalizeTitle("  Service   Page\tSynced "); got != "Service Page Synced" {
		t.Errorf("NormalizeTitle() = %q", got)
	}
}

func TestKind(t *testing.T) {
	for _, k := range Kinds {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if _, ok := ParseKind("post"); ok {
		t.Error("post should not be an importable kind")
	}
	if !KindForm.Tokenizable() || KindNavigation.Tokenizable() || KindAttachment.Tokenizable() {
		t.Error("Tokenizable() mismatch")
	}
}
