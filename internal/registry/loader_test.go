package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeModels(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, f := range names {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(""), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
}

func TestLoadDir_FiltersGGUF(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "b.gguf", "a.GGUF", "not-model.txt", "model.bin")
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil { t.Fatalf("mkdir: %v", err) }
	models, err := LoadDir(dir)
	if err != nil { t.Fatalf("scan error: %v", err) }
	if len(models) != 2 { t.Fatalf("expected 2 models, got %d", len(models)) }
	if models[0].ID != "a.GGUF" || models[1].ID != "b.gguf" { t.Fatalf("unexpected order: %+v", models) }
	if !filepath.IsAbs(models[0].Path) { t.Fatalf("path not absolute: %s", models[0].Path) }
}

func TestLoadDir_Missing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "missing")); err == nil { t.Fatalf("expected error") }
}

func TestLoadDir_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	hTmp, err := os.MkdirTemp(home, "humanizerd-registry-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	writeModels(t, hTmp, "x.gguf")
	tildePath := "~/" + filepath.Base(hTmp)
	if runtime.GOOS == "windows" {
		tildePath = filepath.Join("~", filepath.Base(hTmp))
	}
	models, err := LoadDir(tildePath)
	if err != nil { t.Fatalf("scan error: %v", err) }
	if len(models) != 1 || models[0].ID != "x.gguf" { t.Fatalf("unexpected models: %+v", models) }
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir,
		"DialoGPT-medium.Q8_0.gguf",
		"dialogpt-large.gguf",
		"TinyLlama-1.1B-Chat-v1.0.Q4_K_M.gguf",
		"dialogpt-mediumish.gguf",
	)
	models, err := LoadDir(dir)
	if err != nil { t.Fatalf("load: %v", err) }
	cases := map[string]string{
		"microsoft/DialoGPT-medium":          "DialoGPT-medium.Q8_0.gguf",
		"microsoft/DialoGPT-large":           "dialogpt-large.gguf",
		"TinyLlama/TinyLlama-1.1B-Chat-v1.0": "TinyLlama-1.1B-Chat-v1.0.Q4_K_M.gguf",
		"dialogpt-mediumish":                 "dialogpt-mediumish.gguf",
	}
	for id, want := range cases {
		m, ok := Resolve(models, id)
		if !ok || m.ID != want { t.Fatalf("Resolve(%q) = %+v ok=%v, want %s", id, m, ok, want) }
	}
	if _, ok := Resolve(models, "gpt2"); ok { t.Fatalf("unexpected match for gpt2") }
	if _, ok := Resolve(models, "  "); ok { t.Fatalf("unexpected match for blank id") }
}

func TestResolve_DirectPath(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "custom.gguf")
	m, ok := Resolve(nil, filepath.Join(dir, "custom.gguf"))
	if !ok || m.ID != "custom.gguf" { t.Fatalf("unexpected: %+v ok=%v", m, ok) }
	if _, ok := Resolve(nil, filepath.Join(dir, "absent.gguf")); ok { t.Fatalf("unexpected match for absent file") }
}
