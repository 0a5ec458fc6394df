// Package project reads and writes the schema-versioned JSON project
// document. Only schema_version 1 is accepted; an unsupported version is a
// hard failure, never a silent upgrade.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"promptforge/internal/engine"
)

// document mirrors the on-disk layout. Pointer fields distinguish "absent"
// from "zero" so documented defaults can be applied.
type document struct {
	SchemaVersion           *int                     `json:"schema_version"`
	ProjectTitle            string                   `json:"project_title"`
	Outcome                 string                   `json:"outcome"`
	RequirementsConstraints string                   `json:"requirements_constraints"`
	SpecialResources        string                   `json:"special_resources"`
	Iterations              *int                     `json:"iterations"`
	OutputFormat            *string                  `json:"output_format"`
	AdditiveModelTier       *string                  `json:"additive_phase_model_tier"`
	ReductiveModelTier      *string                  `json:"reductive_phase_model_tier"`
	AdditiveAllowedChanges  string                   `json:"additive_phase_allowed_changes"`
	ReductiveAllowedChanges string                   `json:"reductive_phase_allowed_changes"`
	AdditiveTemplate        string                   `json:"additive_prompt_template"`
	ReductiveTemplate       string                   `json:"reductive_prompt_template"`
	CurrentOutput           string                   `json:"current_output"`
	History                 []engine.IterationRecord `json:"history"`
}

// Save serializes a ProjectState to path, creating parent directories.
func Save(state engine.ProjectState, path string) error {
	if state.SchemaVersion == 0 {
		state.SchemaVersion = engine.SchemaVersion
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("project: create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("project: write %s: %w", path, err)
	}
	return nil
}

// Load reads a ProjectState from a file.
func Load(path string) (engine.ProjectState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return engine.ProjectState{}, fmt.Errorf("project: read %s: %w", path, err)
	}
	state, err := Decode(raw)
	if err != nil {
		return engine.ProjectState{}, fmt.Errorf("project: %s: %w", path, err)
	}
	return state, nil
}

// Decode parses a project document, validating the schema version and
// applying documented defaults for absent optional fields.
func Decode(raw []byte) (engine.ProjectState, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return engine.ProjectState{}, fmt.Errorf("malformed project document: %w", err)
	}
	if doc.SchemaVersion == nil {
		return engine.ProjectState{}, fmt.Errorf("project document is missing required field schema_version")
	}
	if *doc.SchemaVersion != engine.SchemaVersion {
		return engine.ProjectState{}, fmt.Errorf(
			"unsupported schema_version=%d; supported versions: %d", *doc.SchemaVersion, engine.SchemaVersion)
	}

	state := engine.NewProjectState()
	state.ProjectTitle = doc.ProjectTitle
	state.Outcome = doc.Outcome
	state.RequirementsConstraints = doc.RequirementsConstraints
	state.SpecialResources = doc.SpecialResources
	state.AdditiveAllowedChanges = doc.AdditiveAllowedChanges
	state.ReductiveAllowedChanges = doc.ReductiveAllowedChanges
	state.AdditiveTemplate = doc.AdditiveTemplate
	state.ReductiveTemplate = doc.ReductiveTemplate
	state.CurrentOutput = doc.CurrentOutput
	state.History = doc.History
	if doc.Iterations != nil {
		state.Iterations = *doc.Iterations
	}
	if doc.OutputFormat != nil {
		state.OutputFormat = *doc.OutputFormat
	}
	if doc.AdditiveModelTier != nil {
		state.AdditiveModelTier = *doc.AdditiveModelTier
	}
	if doc.ReductiveModelTier != nil {
		state.ReductiveModelTier = *doc.ReductiveModelTier
	}
	return state, nil
}
