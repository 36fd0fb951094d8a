package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/syssam/helix"
)

// ReportFileName is the generation report artifact written into the
// output directory of every successful run.
const ReportFileName = "dna-generation-report.json"

// Report is the persisted record of one generation run.
type Report struct {
	Project      string                   `json:"project"`
	Framework    string                   `json:"framework"`
	TemplateType string                   `json:"templateType"`
	Modules      []string                 `json:"modules"`
	Generated    string                   `json:"generated"` // RFC 3339
	RunID        string                   `json:"runId"`
	Files        int                      `json:"files"`
	Durations    map[string]string        `json:"stageDurations,omitempty"`
	Resolution   []helix.ResolutionEntry  `json:"resolution,omitempty"`
	Warnings     []string                 `json:"warnings,omitempty"`
	Frameworks   map[string]compatibility `json:"moduleCompatibility,omitempty"`
}

type compatibility struct {
	Level       string `json:"level"`
	Limitations string `json:"limitations,omitempty"`
}

// writeReport persists the run report into the output directory.
func (r *run) writeReport() error {
	report := Report{
		Project:      r.req.Name,
		Framework:    r.req.Framework,
		TemplateType: r.req.TemplateType,
		Modules:      r.resolved,
		Generated:    time.Now().UTC().Format(time.RFC3339),
		RunID:        r.id,
		Files:        len(r.files),
		Durations:    make(map[string]string, len(r.metrics.StageDurations)),
		Resolution:   r.resolution,
		Warnings:     r.warnings,
		Frameworks:   make(map[string]compatibility, len(r.modules)),
	}
	for stage, d := range r.metrics.StageDurations {
		report.Durations[string(stage)] = d.String()
	}
	for _, m := range r.modules {
		c := compatibility{Level: string(m.Compatibility(r.req.Framework))}
		if impl, ok := m.Implementation(r.req.Framework); ok {
			c.Limitations = impl.Limitations
		}
		report.Frameworks[m.ID()] = c
	}

	blob, err := json.MarshalIndent(&report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.req.OutputPath, ReportFileName), append(blob, '\n'), 0o644)
}
