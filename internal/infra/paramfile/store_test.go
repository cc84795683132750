package paramfile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"schnorrd/internal/domain"
	"schnorrd/pkg/schnorr"
)

func generate(t *testing.T) *schnorr.Parameters {
	t.Helper()
	g := schnorr.NewGenerator()
	var err error
	for i := 0; i < 5; i++ {
		var params *schnorr.Parameters
		params, err = g.Generate(context.Background(), schnorr.Level1024)
		if err == nil {
			return params
		}
	}
	t.Fatalf("generate: %v", err)
	return nil
}

func TestSaveLoadRoundTrip(t *testing.T) {
	params := generate(t)
	path := filepath.Join(t.TempDir(), "schnorr.properties")
	store := NewStore(path, schnorr.DefaultCertainty)

	if err := store.Save(params); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Equal(params) {
		t.Fatalf("round trip mismatch:\n%s\n%s", params, loaded)
	}
}

func TestSavePreservesOtherKeys(t *testing.T) {
	params := generate(t)
	path := filepath.Join(t.TempDir(), "app.properties")
	seed := "owner = alice\npNumber = 17\n\n[ui]\ntheme = dark\n"
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	if err := NewStore(path, schnorr.DefaultCertainty).Save(params); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(raw)
	for _, want := range []string{"owner", "alice", "theme", "dark", params.P().Text(16), params.A().Text(16)} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in saved file:\n%s", want, out)
		}
	}
	if strings.Contains(out, "= 17\n") {
		t.Fatalf("old pNumber survived:\n%s", out)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "nope"), 10).Load()
	if !errors.Is(err, domain.ErrParamsUnavailable) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected params unavailable, got %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"missing key":  "pNumber = 17\nqNumber = b\n",
		"not hex":      "pNumber = xyz\nqNumber = b\naNumber = 2\n",
		"unknown size": "pNumber = 17\nqNumber = b\naNumber = 2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "p.properties")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := NewStore(path, 10).Load()
			if !errors.Is(err, schnorr.ErrInvalidParameters) {
				t.Fatalf("expected invalid parameters, got %v", err)
			}
		})
	}
}

func TestLoadRejectsTamperedParameters(t *testing.T) {
	params := generate(t)
	path := filepath.Join(t.TempDir(), "p.properties")
	store := NewStore(path, schnorr.DefaultCertainty)
	if err := store.Save(params); err != nil {
		t.Fatalf("save: %v", err)
	}
	body := "pNumber = " + params.P().Text(16) + "\nqNumber = " + params.Q().Text(16) + "\naNumber = 1\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, schnorr.ErrInvalidParameters) {
		t.Fatalf("expected invalid parameters, got %v", err)
	}
}
