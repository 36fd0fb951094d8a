package helix

// GenerationRequest is the immutable input of one pipeline run. It is built
// at the CLI/API boundary and validated by the pre-generation stage.
type GenerationRequest struct {
	// Name is the project name. Must start with a letter and contain only
	// letters, digits, hyphens and underscores.
	Name string `json:"name" validate:"required"`

	// OutputPath is the directory the project is generated into.
	OutputPath string `json:"outputPath" validate:"required"`

	// TemplateType is the template category (e.g. "web-app", "performance").
	TemplateType string `json:"templateType" validate:"required"`

	// Framework is the target framework id (e.g. "nextjs", "flutter").
	Framework string `json:"framework" validate:"required"`

	// Modules are the requested DNA module ids. Order is not significant for
	// resolution but is preserved for deterministic output ordering and for
	// conflict tie-breaks.
	Modules []string `json:"dnaModules"`

	// Variables are free-form template variables passed to generators.
	Variables map[string]string `json:"variables,omitempty"`

	// Options tune post-generation behavior.
	Options GenerationOptions `json:"options"`
}

// GenerationOptions are the request-level switches around a run.
type GenerationOptions struct {
	SkipInstall    bool   `json:"skipInstall,omitempty"`
	SkipGit        bool   `json:"skipGit,omitempty"`
	PackageManager string `json:"packageManager,omitempty"`
	DryRun         bool   `json:"dryRun,omitempty"`
	Overwrite      bool   `json:"overwrite,omitempty"`
}

// ResolutionAction describes what the resolver did with one module.
type ResolutionAction string

// Resolution actions recorded in the resolution log.
const (
	ResolutionKept    ResolutionAction = "kept"
	ResolutionDropped ResolutionAction = "dropped"
	ResolutionAdded   ResolutionAction = "added"
)

// ResolutionEntry is one line of the resolution log: what happened to a
// module during dependency and conflict resolution, and why.
type ResolutionEntry struct {
	ModuleID string           `json:"moduleId"`
	Action   ResolutionAction `json:"action"`
	Reason   string           `json:"reason,omitempty"`
}

// ResolvedModuleSet is the conflict-free, dependency-complete list of module
// ids used by one generation run. A module id appears at most once; every
// entry is either directly requested or pulled in as a required dependency.
type ResolvedModuleSet struct {
	Modules  []string          `json:"modules"`
	Log      []ResolutionEntry `json:"log,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Contains reports whether id is part of the resolved set.
func (s *ResolvedModuleSet) Contains(id string) bool {
	for _, m := range s.Modules {
		if m == id {
			return true
		}
	}
	return false
}

// GenerationResult is what a pipeline run returns to the caller.
type GenerationResult struct {
	Success        bool     `json:"success"`
	OutputPath     string   `json:"outputPath"`
	GeneratedFiles []string `json:"generatedFiles,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
	Metrics        *Metrics `json:"metrics,omitempty"`
}
