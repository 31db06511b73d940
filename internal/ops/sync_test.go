package ops

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/zeebo/blake3"

	"github.com/hpungsan/nesta/internal/bundle"
	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
)

func zipFiles(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip Create failed: %v", err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("zip Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip Close failed: %v", err)
	}
	return buf.Bytes()
}

func TestSync_AddsPackAndRefreshesCatalog(t *testing.T) {
	env := newTestEnv(t)
	archive := zipFiles(t, map[string]string{
		"manifest.json":   `{"id": "roofer", "name": "Roofer", "version": "2.0.0"}`,
		"pages/home.html": "<h1>{{business_name}}</h1>",
	})
	sum := blake3.Sum256(archive)
	checksum := bundle.PrefixBLAKE3 + hex.EncodeToString(sum[:])

	var downloads atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/catalog.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"templates": [{"id": "roofer", "download_url": "%s/roofer.zip", "version": "2.0.0", "checksum": "%s"}]}`, srv.URL, checksum)
	})
	mux.HandleFunc("/roofer.zip", func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		w.Write(archive)
	})

	// Prime the catalog cache so the refresh is observable.
	if _, err := GetPack(env, GetPackInput{ID: "roofer"}); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("roofer found before sync: %v", err)
	}

	out, err := Sync(context.Background(), env, SyncInput{CatalogURL: srv.URL + "/catalog.json"})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if out.Added != 1 || out.Packs[0].Outcome != bundle.OutcomeAdded {
		t.Fatalf("Sync = %+v, want roofer added", out.Result)
	}
	if _, err := GetPack(env, GetPackInput{ID: "roofer"}); err != nil {
		t.Errorf("roofer not visible after sync: %v", err)
	}

	ledger, err := (db.LedgerStore{DB: env.DB}).LoadLedger()
	if err != nil {
		t.Fatalf("LoadLedger failed: %v", err)
	}
	if ledger["roofer"] != checksum {
		t.Errorf("ledger[roofer] = %q, want %q", ledger["roofer"], checksum)
	}

	out, err = Sync(context.Background(), env, SyncInput{CatalogURL: srv.URL + "/catalog.json"})
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if out.Skipped != 1 || downloads.Load() != 1 {
		t.Errorf("second Sync = %+v after %d downloads, want skip", out.Result, downloads.Load())
	}
}

func TestSync_Configuration(t *testing.T) {
	env := newTestEnv(t)

	if _, err := Sync(context.Background(), env, SyncInput{}); !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("Sync without catalog URL error = %v, want ErrConfiguration", err)
	}

	env.Fetcher = nil
	if _, err := Sync(context.Background(), env, SyncInput{CatalogURL: "http://127.0.0.1/x"}); !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("Sync without fetcher error = %v, want ErrConfiguration", err)
	}
}
