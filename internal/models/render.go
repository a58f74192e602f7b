package models

type RenderResultType string

const (
	RenderMarkdown RenderResultType = "markdown"
	RenderGraph    RenderResultType = "graph"
	RenderError    RenderResultType = "error"
)

type GraphDataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

type GraphData struct {
	Labels   []string       `json:"labels"`
	Datasets []GraphDataset `json:"datasets"`
}

type GraphSpec struct {
	Type string    `json:"type"`
	Data GraphData `json:"data"`
}

type RenderResult struct {
	Type    RenderResultType `json:"type"`
	Content string           `json:"content,omitempty"`
	Graph   *GraphSpec       `json:"graph,omitempty"`
	Error   string           `json:"error,omitempty"`
}
