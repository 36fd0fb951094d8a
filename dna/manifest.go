package dna

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/syssam/helix"
)

// Manifest is the YAML representation of a DNA module whose file payloads
// are data rather than code.
type Manifest struct {
	ID           string                    `yaml:"id"`
	Name         string                    `yaml:"name"`
	Version      string                    `yaml:"version"`
	Category     string                    `yaml:"category"`
	Keywords     []string                  `yaml:"keywords,omitempty"`
	Dependencies []helix.ModuleDependency  `yaml:"dependencies,omitempty"`
	Conflicts    []helix.ModuleConflict    `yaml:"conflicts,omitempty"`
	Frameworks   []ManifestFramework       `yaml:"frameworks"`
}

// ManifestFramework is one per-framework implementation inside a manifest.
type ManifestFramework struct {
	Framework       string         `yaml:"framework"`
	Compatibility   string         `yaml:"compatibility,omitempty"`
	Limitations     string         `yaml:"limitations,omitempty"`
	Dependencies    []string       `yaml:"dependencies,omitempty"`
	DevDependencies []string       `yaml:"devDependencies,omitempty"`
	TemplateGlobs   []string       `yaml:"templateGlobs,omitempty"`
	Files           []ManifestFile `yaml:"files,omitempty"`
}

// ManifestFile is one templated output file.
type ManifestFile struct {
	Path       string `yaml:"path"`
	Content    string `yaml:"content"`
	Executable bool   `yaml:"executable,omitempty"`
	Merge      string `yaml:"mergeStrategy,omitempty"`
}

// TemplateData is the dot value manifest templates render against.
type TemplateData struct {
	Project      string
	Package      string
	Framework    string
	TemplateType string
	Modules      []string
	Vars         map[string]string
}

// templateGenerator renders parsed manifest file templates against the
// generation context.
type templateGenerator struct {
	moduleID string
	files    []parsedFile
}

type parsedFile struct {
	path       *template.Template
	content    *template.Template
	executable bool
	merge      helix.MergeStrategy
}

// GenerateFiles implements helix.FileGenerator.
func (g *templateGenerator) GenerateFiles(ctx context.Context, gctx *helix.GenerateContext) ([]*helix.GeneratedFile, error) {
	data := TemplateData{
		Project:      gctx.ProjectName,
		Package:      gctx.PackageName,
		Framework:    gctx.Framework,
		TemplateType: gctx.TemplateType,
		Modules:      gctx.Modules,
		Vars:         gctx.Variables,
	}
	out := make([]*helix.GeneratedFile, 0, len(g.files))
	for _, f := range g.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var path bytes.Buffer
		if err := f.path.Execute(&path, data); err != nil {
			return nil, fmt.Errorf("dna: module %q: rendering path: %w", g.moduleID, err)
		}
		var content bytes.Buffer
		if err := f.content.Execute(&content, data); err != nil {
			return nil, fmt.Errorf("dna: module %q: rendering %q: %w", g.moduleID, path.String(), err)
		}
		out = append(out, &helix.GeneratedFile{
			Path:       path.String(),
			Content:    content.Bytes(),
			Executable: f.executable,
			Merge:      f.merge,
			Modules:    []string{g.moduleID},
		})
	}
	return out, nil
}

// Load reads one YAML manifest and builds the module it describes.
func Load(r io.Reader) (*Module, error) {
	var mf Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("dna: decoding manifest: %w", err)
	}
	return mf.Build()
}

// LoadFile reads the manifest at path.
func LoadFile(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dna: opening manifest: %w", err)
	}
	defer f.Close()
	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("dna: manifest %q: %w", filepath.Base(path), err)
	}
	return m, nil
}

// LoadDir loads every *.yaml and *.yml manifest under dir, recursively.
// Results are sorted by module id.
func LoadDir(dir string) ([]*Module, error) {
	pattern := filepath.Join(dir, "**", "*.{yaml,yml}")
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("dna: globbing manifests: %w", err)
	}
	sort.Strings(paths)
	mods := make([]*Module, 0, len(paths))
	for _, p := range paths {
		m, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].ID() < mods[j].ID() })
	return mods, nil
}

// Build assembles the module described by the manifest.
func (m *Manifest) Build() (*Module, error) {
	b := NewModule(m.ID).
		Name(m.Name).
		Version(m.Version).
		Category(m.Category).
		Keywords(m.Keywords...)
	for _, d := range m.Dependencies {
		opts := []DependencyOption{Because(d.Reason)}
		if d.Range != "" {
			opts = append(opts, Range(d.Range))
		}
		if d.Optional {
			opts = append(opts, Optional())
		}
		b.DependsOn(d.ModuleID, opts...)
	}
	for _, c := range m.Conflicts {
		b.ConflictsWith(c.ModuleID, c.Severity, c.Resolution)
	}
	for _, fw := range m.Frameworks {
		opts, err := fw.options(m.ID)
		if err != nil {
			return nil, err
		}
		b.Framework(fw.Framework, opts...)
	}
	return b.Build()
}

func (fw *ManifestFramework) options(moduleID string) ([]FrameworkOption, error) {
	var opts []FrameworkOption
	switch helix.Compatibility(fw.Compatibility) {
	case helix.CompatibilityPartial:
		opts = append(opts, Partial(fw.Limitations))
	case helix.CompatibilityNone:
		opts = append(opts, Unsupported(fw.Limitations))
	case helix.CompatibilityFull, "":
		opts = append(opts, Full())
	default:
		return nil, fmt.Errorf("dna: module %q: unknown compatibility %q", moduleID, fw.Compatibility)
	}
	if len(fw.Dependencies) > 0 {
		opts = append(opts, Packages(fw.Dependencies...))
	}
	if len(fw.DevDependencies) > 0 {
		opts = append(opts, DevPackages(fw.DevDependencies...))
	}
	if len(fw.TemplateGlobs) > 0 {
		opts = append(opts, Templates(fw.TemplateGlobs...))
	}
	if len(fw.Files) > 0 {
		gen, err := fw.generator(moduleID)
		if err != nil {
			return nil, err
		}
		opts = append(opts, Generator(gen))
	}
	return opts, nil
}

func (fw *ManifestFramework) generator(moduleID string) (helix.FileGenerator, error) {
	gen := &templateGenerator{moduleID: moduleID}
	for _, f := range fw.Files {
		if f.Path == "" {
			return nil, fmt.Errorf("dna: module %q: manifest file with empty path", moduleID)
		}
		merge := helix.MergeStrategy(f.Merge)
		if merge != "" && !merge.Valid() {
			return nil, fmt.Errorf("dna: module %q: file %q: unknown merge strategy %q", moduleID, f.Path, f.Merge)
		}
		pathTmpl, err := template.New(f.Path + ":path").Option("missingkey=zero").Parse(f.Path)
		if err != nil {
			return nil, fmt.Errorf("dna: module %q: file %q: %w", moduleID, f.Path, err)
		}
		contentTmpl, err := template.New(f.Path).Option("missingkey=zero").Parse(f.Content)
		if err != nil {
			return nil, fmt.Errorf("dna: module %q: file %q: %w", moduleID, f.Path, err)
		}
		gen.files = append(gen.files, parsedFile{
			path:       pathTmpl,
			content:    contentTmpl,
			executable: f.Executable,
			merge:      merge,
		})
	}
	return gen, nil
}
