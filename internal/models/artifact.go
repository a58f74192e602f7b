package models

type ArtifactKind string

const (
	ArtifactJSONFilter   ArtifactKind = "json-filter"
	ArtifactDualScript   ArtifactKind = "dual-script"
	ArtifactRawScript    ArtifactKind = "raw-script"
	ArtifactUnrecognized ArtifactKind = "unrecognized"
)

// GeneratedArtifact is the classified output of one LLM round-trip. It lives
// only in session state until applied or discarded.
type GeneratedArtifact struct {
	Kind         ArtifactKind      `json:"kind"`
	Filter       *StructuredFilter `json:"filter,omitempty"`
	FilterScript string            `json:"filter_script,omitempty"`
	RenderScript string            `json:"render_script,omitempty"`
	RawText      string            `json:"raw_text,omitempty"`
}
