package dna

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Framework describes one target application stack.
type Framework struct {
	// ID is the stable framework identifier used in requests and manifests.
	ID string

	// Label is the human-readable name shown in reports and prompts.
	Label string

	// PackageManager is the default package manager for the stack.
	PackageManager string
}

// Builtin framework ids.
const (
	FrameworkNextJS  = "nextjs"
	FrameworkReact   = "react"
	FrameworkFlutter = "flutter"
	FrameworkTauri   = "tauri"
)

// Builtin template types. These mirror the template categories shipped with
// the generator.
const (
	TemplateWebApp        = "web-app"
	TemplateMobileApp     = "mobile-app"
	TemplatePerformance   = "performance"
	TemplateCrossPlatform = "cross-platform"
)

var frameworks = map[string]Framework{
	FrameworkNextJS:  {ID: FrameworkNextJS, Label: "Next.js", PackageManager: "npm"},
	FrameworkReact:   {ID: FrameworkReact, Label: "React", PackageManager: "npm"},
	FrameworkFlutter: {ID: FrameworkFlutter, Label: "Flutter", PackageManager: "pub"},
	FrameworkTauri:   {ID: FrameworkTauri, Label: "Tauri", PackageManager: "cargo"},
}

var templateTypes = map[string]struct{}{
	TemplateWebApp:        {},
	TemplateMobileApp:     {},
	TemplatePerformance:   {},
	TemplateCrossPlatform: {},
}

// Frameworks returns the known frameworks sorted by id.
func Frameworks() []Framework {
	out := make([]Framework, 0, len(frameworks))
	for _, f := range frameworks {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LookupFramework returns the framework for id.
func LookupFramework(id string) (Framework, bool) {
	f, ok := frameworks[id]
	return f, ok
}

// KnownFramework reports whether id names a known framework.
func KnownFramework(id string) bool {
	_, ok := frameworks[id]
	return ok
}

// TemplateTypes returns the known template types sorted.
func TemplateTypes() []string {
	out := make([]string, 0, len(templateTypes))
	for t := range templateTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// KnownTemplateType reports whether t names a known template type.
func KnownTemplateType(t string) bool {
	_, ok := templateTypes[t]
	return ok
}

var titler = cases.Title(language.English)

// DisplayName renders an id like "auth-jwt" as "Auth Jwt" for prompts and
// reports. Known frameworks use their curated label instead.
func DisplayName(id string) string {
	if f, ok := frameworks[id]; ok {
		return f.Label
	}
	spaced := strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return titler.String(spaced)
}
