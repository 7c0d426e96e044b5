package domain

// Node is the read-only view of a graph node as returned by a candidate
// source. The id is opaque to the engine.
type Node struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

// HasTag reports whether the node carries the given tag.
func (n Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FuzzyHit is a full-text candidate. IsEntity is a store-provided hint that
// the node represents a real-world entity rather than a note or task.
type FuzzyHit struct {
	Node
	IsEntity bool `json:"is_entity"`
}

// SemanticHit is a vector-index candidate with its raw cosine similarity in
// [-1, 1]. Calibration into a confidence happens in the engine, not here.
type SemanticHit struct {
	Node
	Similarity float64 `json:"similarity"`
}

// NodeRecord is the write-side shape used by the importer and the embedding
// worker. The resolution engine itself never writes nodes.
type NodeRecord struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Tags     []string `json:"tags,omitempty"`
	IsEntity bool     `json:"is_entity"`
	Scope    string   `json:"scope,omitempty"`
}
