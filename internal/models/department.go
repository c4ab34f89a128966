package models

// Department keeps unknown store fields in Fields so reads stay lossless.
type Department struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Fields map[string]any `json:"fields,omitempty"`
}
