package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"image_editor/internal/domain"
	"image_editor/internal/errs"
)

// Validation failure reasons returned to the editor.
const (
	ReasonMissingDimensions  = "missing dimensions"
	ReasonInvalidDimensions  = "invalid dimensions"
	ReasonMissingProjectData = "missing project data"
	ReasonMissingImage       = "missing image"
)

// SavePayload is the body of a save request as sent by the editor.
type SavePayload struct {
	ProjectID   *uint           `json:"project_id"`
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Width       *int            `json:"width"`
	Height      *int            `json:"height"`
	ProjectData json.RawMessage `json:"project_data"`
}

// ValidProject is a SavePayload that passed Validate.
type ValidProject struct {
	ProjectID   uint // zero means a new project
	Title       string
	Description string
	Width       int
	Height      int
	ProjectData []byte // compacted JSON object with a non-empty image entry
}

// Validate checks a save payload in a fixed order: dimensions, project data, image.
func (p SavePayload) Validate() (ValidProject, error) {
	if p.Width == nil || p.Height == nil || *p.Width == 0 || *p.Height == 0 {
		return ValidProject{}, errs.Validation(ReasonMissingDimensions)
	}
	if *p.Width < 0 || *p.Height < 0 {
		return ValidProject{}, errs.Validation(ReasonInvalidDimensions)
	}

	data, ok := decodeObject(p.ProjectData)
	if !ok || len(data) == 0 {
		return ValidProject{}, errs.Validation(ReasonMissingProjectData)
	}
	if !truthy(data["image"]) {
		return ValidProject{}, errs.Validation(ReasonMissingImage)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, p.ProjectData); err != nil {
		return ValidProject{}, errs.Validation(ReasonMissingProjectData)
	}

	v := ValidProject{
		Title:       domain.DefaultProjectTitle,
		Width:       *p.Width,
		Height:      *p.Height,
		ProjectData: compact.Bytes(),
	}
	if p.ProjectID != nil {
		v.ProjectID = *p.ProjectID
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) != "" {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	return v, nil
}

// decodeObject decodes raw as a JSON object, keeping numbers exact.
func decodeObject(raw []byte) (map[string]any, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// truthy mirrors how the editor treats values: null, false, zero, "" and empty
// containers count as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

// isEmptyProject reports whether a stored project is a leftover draft: missing a
// dimension, with no stored data, with data that does not parse, or with no image.
func isEmptyProject(p *domain.Project) bool {
	if p.Width == nil || p.Height == nil || *p.Width == 0 || *p.Height == 0 {
		return true
	}
	if isBlankProjectData(p.ProjectData) {
		return true
	}
	data, ok := decodeObject([]byte(p.ProjectData))
	if !ok {
		return true
	}
	return !truthy(data["image"])
}

// isBlankProjectData reports whether a stored blob is one of the empty sentinels.
func isBlankProjectData(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "", "{}", "null":
		return true
	}
	return false
}
