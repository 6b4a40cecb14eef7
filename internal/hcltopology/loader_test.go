package hcltopology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/reconfgrid/internal/testutil"
	"github.com/vk/reconfgrid/internal/topology"
)

func TestLoad(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{
		"shop.hcl": `
			configuration "shop" {
				deployment "api" {
					manifest = "${path.root}/api.yaml"
					requires = ["db", "cache"]
				}
				deployment "db" {
					manifest = format("%s.yml", lower("DB"))
				}
				deployment "cache" {}
			}
		`,
		"notes.txt": "ignored",
	})

	// --- Act ---
	g, err := NewLoader().Load(testutil.Context(), dir)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "shop", g.Namespace())
	assert.Equal(t, []string{"api", "cache", "db"}, g.Names())
	assert.Equal(t, []topology.Dependency{
		{Source: "api", Target: "cache"},
		{Source: "api", Target: "db"},
	}, g.Dependencies())

	api, _ := g.Lookup("api")
	assert.Equal(t, filepath.ToSlash(dir)+"/api.yaml", api.ManifestPath)
	assert.Equal(t, topology.Started, api.Status)
	db, _ := g.Lookup("db")
	assert.Equal(t, "db.yml", db.ManifestPath)
}

func TestLoadMergesFiles(t *testing.T) {
	t.Parallel()
	dir := testutil.WriteFiles(t, map[string]string{
		"a.hcl":        `
			configuration "shop" {
				deployment "api" {
					requires = ["db"]
				}
			}`,
		"nested/b.hcl": `
			configuration "shop" {
				deployment "db" {
					manifest = "${path.root}/db.yaml"
				}
			}`,
	})

	g, err := NewLoader().Load(testutil.Context(), dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"api", "db"}, g.Names())
	db, _ := g.Lookup("db")
	assert.Equal(t, filepath.ToSlash(dir)+"/db.yaml", db.ManifestPath)
}

func TestLoadSingleFile(t *testing.T) {
	t.Parallel()
	dir := testutil.WriteFiles(t, map[string]string{
		"conf/shop.hcl": `
			configuration "shop" {
				deployment "api" {
					manifest = "${path.root}/api.yaml"
				}
			}`,
	})
	file := filepath.Join(dir, "conf", "shop.hcl")

	g, err := NewLoader().Load(testutil.Context(), file, file)

	require.NoError(t, err)
	api, _ := g.Lookup("api")
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "conf"))+"/api.yaml", api.ManifestPath)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  error
	}{
		{
			name:  "no configuration",
			files: map[string]string{"empty.hcl": ``},
			want:  ErrNoConfiguration,
		},
		{
			name: "two configurations",
			files: map[string]string{
				"a.hcl": `configuration "shop" {}`,
				"b.hcl": `configuration "blog" {}`,
			},
			want: ErrMultipleConfigurations,
		},
		{
			name: "duplicate deployment",
			files: map[string]string{
				"a.hcl": `
			configuration "shop" {
				deployment "api" {}
			}`,
				"b.hcl": `
			configuration "shop" {
				deployment "api" {}
			}`,
			},
			want: topology.ErrDuplicateDeployment,
		},
		{
			name:  "unknown requirement",
			files: map[string]string{"a.hcl": `
			configuration "shop" {
				deployment "api" {
					requires = ["db"]
				}
			}`},
			want:  topology.ErrDeploymentNotFound,
		},
		{
			name: "cycle",
			files: map[string]string{"a.hcl": `
				configuration "shop" {
					deployment "a" {
						requires = ["b"]
					}
					deployment "b" {
						requires = ["a"]
					}
				}`},
			want: topology.ErrCyclicConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewLoader().Load(testutil.Context(), testutil.WriteFiles(t, tt.files))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadRejectsInvalidHCL(t *testing.T) {
	t.Parallel()
	dir := testutil.WriteFiles(t, map[string]string{"bad.hcl": `configuration "shop" {`})

	_, err := NewLoader().Load(testutil.Context(), dir)

	assert.ErrorContains(t, err, "failed to parse HCL file")
}

func TestLoadMissingPath(t *testing.T) {
	t.Parallel()
	_, err := NewLoader().Load(testutil.Context(), filepath.Join(t.TempDir(), "missing"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}
