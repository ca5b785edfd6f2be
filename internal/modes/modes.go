// Package modes holds the registry of response policies. A mode bundles the
// system instructions and style hint used when answering in a given context,
// such as a live emergency versus a clinician handover. Adding a mode is a
// data change only; nothing else in the application switches on mode names.
package modes

import (
	"errors"
	"fmt"
)

// ErrUnknownMode is returned when a caller asks for a mode that is not
// registered. This is a caller/configuration error: unknown names are never
// silently mapped to the default.
var ErrUnknownMode = errors.New("unknown mode")

// Mode is an immutable response policy.
type Mode struct {
	Name         string
	Instructions string
	StyleHint    string
}

// DefaultName is the mode used when the caller does not pick one.
const DefaultName = "Emergency guidance"

var registry = []Mode{
	{
		Name: DefaultName,
		Instructions: "You are an emergency medical profile assistant. Prioritise safety and clarity. " +
			"Use only facts from the patient's structured profile and retrieved documents " +
			"(e.g., device leaflets). If confidence is low or instructions are incomplete, " +
			"explicitly state this and advise contacting emergency services. Keep steps short, " +
			"action-first, and surface storage locations, allergies, and dosage clearly. " +
			"Prefer British English.",
		StyleHint: "Bulleted steps (≤12 words), bold key items, include warnings (⚠️).",
	},
	{
		Name: "Clinician summary",
		Instructions: "Produce a concise, structured summary of the patient based on profile and documents: " +
			"conditions, allergies, current medications (name, device/model, dosage), storage location, " +
			"last reviewed date, and medical aid details. Note data gaps and uncertainties. " +
			"No diagnosis beyond recorded conditions.",
		StyleHint: "Short sections with headings; crisp sentences; no speculation.",
	},
	{
		Name: "General Q&A",
		Instructions: "Answer questions about the patient's medical history and medications using the profile " +
			"and retrieved documents. Be accurate and cautious; if unsure, say so. Provide brief, " +
			"helpful next steps (e.g., consult leaflet, contact clinician) when appropriate.",
		StyleHint: "2–4 crisp sentences; cite leaflet context if used.",
	},
}

var byName = func() map[string]Mode {
	m := make(map[string]Mode, len(registry))
	for _, md := range registry {
		if md.Name == "" || md.Instructions == "" || md.StyleHint == "" {
			panic("modes: registry entry with empty field")
		}
		m[md.Name] = md
	}
	if _, ok := m[DefaultName]; !ok {
		panic("modes: default mode not registered")
	}
	return m
}()

// Get returns the mode registered under name, or ErrUnknownMode.
func Get(name string) (Mode, error) {
	m, ok := byName[name]
	if !ok {
		return Mode{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return m, nil
}

// Default returns the emergency-guidance mode.
func Default() Mode {
	return byName[DefaultName]
}

// List returns mode names in registration order.
func List() []string {
	names := make([]string, len(registry))
	for i, m := range registry {
		names[i] = m.Name
	}
	return names
}
