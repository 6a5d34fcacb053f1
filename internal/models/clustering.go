// internal/models/clustering.go
package models

type Embedding struct {
	ID        string    `json:"id"`
	Embedding []float64 `json:"embedding"`
}

type Cluster struct {
	ClusterID int      `json:"cluster_id"`
	EventIDs  []string `json:"event_ids"`
	Size      int      `json:"size"`
}

// ClusterAssignment is the clustering job's output. Articles not in any
// cluster are noise.
type ClusterAssignment struct {
	Clusters       []Cluster `json:"clusters"`
	ClusteredCount int       `json:"clustered_count"`
	NoiseCount     int       `json:"noise_count"`
}
