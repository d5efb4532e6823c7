package domain

import "time"

// Method identifies which input produced an estimation. The zero value means
// no method has been used yet.
type Method string

const (
	MethodText  Method = "text"
	MethodImage Method = "image"
)

type Ingredient struct {
	Name     string  `json:"name"`
	CarbonKg float64 `json:"carbon_kg"`
}

type EstimationResult struct {
	Dish              string       `json:"dish"`
	EstimatedCarbonKg float64      `json:"estimated_carbon_kg"`
	Ingredients       []Ingredient `json:"ingredients"`
}

// ImageUpload is a dish photo on its way to the estimation backend.
type ImageUpload struct {
	Filename string
	MimeType string
	Data     []byte
}

func (u ImageUpload) Size() int64 {
	return int64(len(u.Data))
}

// HistoryEntry is a completed estimation as recorded in the history store.
type HistoryEntry struct {
	ID                int64
	SessionID         string
	Method            Method
	Query             string
	Dish              string
	EstimatedCarbonKg float64
	Ingredients       []Ingredient
	PhotoKey          string
	CreatedAt         time.Time
}
