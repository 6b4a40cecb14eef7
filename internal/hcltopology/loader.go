package hcltopology

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/topology"
)

var (
	// ErrNoConfiguration is returned when no file declares a configuration.
	ErrNoConfiguration = errors.New("no configuration block found")
	// ErrMultipleConfigurations is returned when files declare differently named configurations.
	ErrMultipleConfigurations = errors.New("multiple configurations declared")
)

// Loader reads HCL topology files into a booted graph.
type Loader struct{}

// NewLoader creates a new HCL topology loader.
func NewLoader() *Loader {
	return &Loader{}
}

// sourceFile is a discovered .hcl file and the root its path.root refers to.
type sourceFile struct {
	path string
	root string
}

// Load parses every .hcl file under paths. Blocks of the same configuration
// may be spread over several files; a deployment may be declared only once.
func (l *Loader) Load(ctx context.Context, paths ...string) (*topology.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL topology loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var (
		namespace string
		builder   *topology.Builder
		declared  = make(map[string]string)
	)
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file.path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file.path, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalContext(file.root), &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file.path, diags)
		}

		for _, c := range root.Configurations {
			if builder == nil {
				namespace, builder = c.Name, topology.NewBuilder(c.Name)
			} else if c.Name != namespace {
				return nil, fmt.Errorf("%w: %q and %q", ErrMultipleConfigurations, namespace, c.Name)
			}
			for _, d := range c.Deployments {
				if previous, ok := declared[d.Name]; ok {
					return nil, fmt.Errorf("%w: %q in %s, first declared in %s", topology.ErrDuplicateDeployment, d.Name, file.path, previous)
				}
				declared[d.Name] = file.path
				builder.Deployment(d.Name, d.Manifest).Requires(d.Name, d.Requires...)
			}
		}
	}
	if builder == nil {
		return nil, ErrNoConfiguration
	}

	g, err := builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("configuration %q: %w", namespace, err)
	}
	logger.Debug("HCL topology loaded.", "configuration", namespace, "deployments", g.Len(), "dependencies", len(g.Dependencies()))
	return g, nil
}

func evalContext(root string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"path": cty.ObjectVal(map[string]cty.Value{
				"root": cty.StringVal(filepath.ToSlash(root)),
			}),
		},
		Functions: map[string]function.Function{
			"format": stdlib.FormatFunc,
			"lower":  stdlib.LowerFunc,
			"upper":  stdlib.UpperFunc,
			"join":   stdlib.JoinFunc,
		},
	}
}

// findAllHCLFiles walks all given paths and returns every .hcl file found,
// once, in walk order.
func (l *Loader) findAllHCLFiles(paths []string) ([]sourceFile, error) {
	var files []sourceFile
	seen := make(map[string]struct{})
	add := func(path, root string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, sourceFile{path: path, root: root})
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path, filepath.Dir(path))
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, entry os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
