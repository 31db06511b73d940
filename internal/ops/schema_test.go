package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/nesta/internal/config"
)

func TestSchema(t *testing.T) {
	env := newTestEnv(t)

	out := Schema(env)
	if len(out.Sections) == 0 || out.Sections[0].ID != "business" {
		t.Errorf("sections = %+v, want built-in schema", out.Sections)
	}
	if len(out.Blueprints) != 2 || out.Blueprints[0].ID != "location" || out.Blueprints[1].ID != "service" {
		t.Errorf("blueprints not ordered by id")
	}
}

func TestSchema_FromFile(t *testing.T) {
	baseDir := t.TempDir()
	yaml := "sections:\n  - id: basics\n    title: Basics\n    tokens:\n      - key: '{{Shop_Name}}'\n        label: Shop name\n"
	if err := os.WriteFile(filepath.Join(baseDir, "schema.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.TokenSchemaPath = "schema.yaml"

	env, err := NewEnv(nil, cfg, baseDir, nil)
	if err != nil {
		t.Fatalf("NewEnv failed: %v", err)
	}
	out := Schema(env)
	if len(out.Sections) != 1 || out.Sections[0].Slots[0].Key != "shop_name" {
		t.Errorf("sections = %+v", out.Sections)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)

	out, err := Status(env)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if out.Installed || out.Menu != nil || out.Branding != nil {
		t.Errorf("Status on a clean site = %+v", out)
	}

	inst := installPlumber(t, env)
	if _, err := Generate(context.Background(), env, GenerateInput{}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	out, err = Status(env)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !out.Installed || out.Generation.ID != inst.GenerationID {
		t.Errorf("Generation = %+v", out.Generation)
	}
	if out.Branding == nil || out.Branding.PackID != "plumber" {
		t.Errorf("Branding = %+v", out.Branding)
	}
	if out.Menu == nil || len(out.Menu.Items) != 2 {
		t.Errorf("Menu = %+v", out.Menu)
	}
}
