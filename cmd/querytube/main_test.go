package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/querytube/internal/catalog"
	"github.com/hyperjump/querytube/internal/config"
	"github.com/hyperjump/querytube/internal/embedding"
	"github.com/hyperjump/querytube/internal/models"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"gradient descent", "-top-k", "3"},
			expected: []string{"-top-k", "3", "gradient descent"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-top-k", "3", "gradient descent"},
			expected: []string{"-top-k", "3", "gradient descent"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"gradient descent"},
			expected: []string{"gradient descent"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"one", "two", "-format", "json"},
			expected: []string{"-format", "json", "one", "two"},
		},
		{
			name:     "flag between query words keeps word order",
			args:     []string{"foo", "--top-k", "3", "bar"},
			expected: []string{"--top-k", "3", "foo", "bar"},
		},
		{
			name:     "flag with equals takes no extra value",
			args:     []string{"foo", "--format=json", "bar"},
			expected: []string{"--format=json", "foo", "bar"},
		},
		{
			name:     "negative top-k value stays with its flag",
			args:     []string{"foo", "--top-k", "-1"},
			expected: []string{"--top-k", "-1", "foo"},
		},
		{
			name:     "double dash ends flags",
			args:     []string{"--top-k", "2", "--", "-negative", "words"},
			expected: []string{"--top-k", "2", "--", "-negative", "words"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"transformers"}, "transformers"},
		{"multiple words", []string{"attention", "heads"}, "attention heads"},
		{"single quoted phrase", []string{"attention heads"}, "attention heads"},
		{"surrounding space trimmed", []string{" ", "x", " "}, "x"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSearchQuery(tt.args); got != tt.expected {
				t.Errorf("buildSearchQuery() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTopKFromFlag(t *testing.T) {
	if topKFromFlag(-1) != nil {
		t.Error("negative flag should defer to the configured default")
	}
	if k := topKFromFlag(0); k == nil || *k != 0 {
		t.Error("explicit 0 should be sent")
	}
	if k := topKFromFlag(7); k == nil || *k != 7 {
		t.Error("explicit value should be sent")
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 8000
catalog:
  path: "./videos.parquet"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestColumnsFromConfig(t *testing.T) {
	got := columnsFromConfig(config.CatalogConfig{IDColumn: "id", EmbeddingPrefix: "vec_"})
	want := catalog.DefaultColumns()
	want.ID = "id"
	want.EmbeddingPrefix = "vec_"
	if got != want {
		t.Errorf("columnsFromConfig() = %+v, want %+v", got, want)
	}
}

func TestInitializeComponents_RejectsCatalogOfWrongWidth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.csv")
	csv := "video_id,emb_0,emb_1,emb_2\nvid0,1,0,0\n"
	if err := os.WriteFile(path, []byte(csv), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Catalog.Path = path
	cfg.Embedding.Provider = embedding.ProviderMock
	cfg.Embedding.Dimensions = 2

	c, err := initializeComponents(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.Catalog.Load(context.Background()); !errors.Is(err, catalog.ErrDimensions) {
		t.Fatalf("Load() error = %v, want ErrDimensions", err)
	}
	if c.Catalog.Ready() {
		t.Error("catalog of the wrong width must not be served")
	}
}

func writeLocalSetup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	csv := "video_id,title,datetime,transcript,emb_0,emb_1\nvid0,Zero,2024-01-01,zero,1,0\nvid1,One,2024-01-02,one,0,1\n"
	if err := os.WriteFile(filepath.Join(dir, "videos.csv"), []byte(csv), 0600); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
catalog:
  path: "./videos.csv"
embedding:
  provider: mock
  dimensions: 2
`
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestSearchLocally(t *testing.T) {
	cfgPath := writeLocalSetup(t)
	k := 1
	resp, err := searchLocally(context.Background(), cfgPath, &models.SearchQuery{Text: "zero", TopK: &k})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("got %d results, want 1", len(resp.Results))
	}
}

func TestStatusLocally(t *testing.T) {
	cfgPath := writeLocalSetup(t)
	status, err := statusLocally(context.Background(), cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Ready || status.Rows != 2 || status.Dimensions != 2 || status.EncoderDimensions != 2 {
		t.Errorf("status = %+v", status)
	}
	if status.Source == nil || filepath.Base(status.Source.Path) != "videos.csv" {
		t.Errorf("source = %+v", status.Source)
	}
}

func TestSearchLocally_MissingCatalog(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
catalog:
  path: "./missing.csv"
embedding:
  provider: mock
  dimensions: 2
`
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := searchLocally(context.Background(), cfgPath, &models.SearchQuery{Text: "x"}); err == nil {
		t.Error("expected error for a missing catalog file")
	}
}
