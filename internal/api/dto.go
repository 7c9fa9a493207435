package api

import "time"

type OpenFileRequest struct {
	// Path is relative to the server's data directory. Absolute paths must
	// still lie inside it.
	Path string `json:"path"`
}

type FileInfo struct {
	ID         string    `json:"id"`
	Object     string    `json:"object"`
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	Masses     int       `json:"masses"`
	Planes     int       `json:"planes"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	SampleType string    `json:"sample_type"`
	MassNames  []string  `json:"mass_names"`
	MassLabels []string  `json:"mass_labels"`
	SampleName string    `json:"sample_name"`
	UserName   string    `json:"user_name"`
	Consistent bool      `json:"consistent"`
	OpenedAt   time.Time `json:"opened_at"`
}

type FileList struct {
	Object string     `json:"object"`
	Data   []FileInfo `json:"data"`
}

type ConsistencyResponse struct {
	ID         string `json:"id"`
	Consistent bool   `json:"consistent"`
	Error      string `json:"error,omitempty"`
}

type PlaneResponse struct {
	ID        string    `json:"id"`
	Mass      int       `json:"mass"`
	Plane     int       `json:"plane"`
	MassName  string    `json:"mass_name"`
	MassLabel string    `json:"mass_label"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Type      string    `json:"type"`
	Values    []float64 `json:"values"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
