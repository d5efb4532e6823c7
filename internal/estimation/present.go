package estimation

import (
	"fmt"
	"slices"
)

// Level buckets a footprint for display.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

func ImpactLevel(kg float64) Level {
	switch {
	case kg < 1:
		return LevelLow
	case kg < 3:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func FormatKg(kg float64) string {
	return fmt.Sprintf("%.2f kg CO₂", kg)
}

// SampleDishes are offered as one-click text estimations.
var SampleDishes = []string{
	"Chicken Biryani",
	"Margherita Pizza",
	"Beef Burger",
	"Vegetable Curry",
	"Spaghetti Carbonara",
	"Sushi Roll",
	"Caesar Salad",
	"Chocolate Cake",
}

const MaxImageSize int64 = 200 * 1024 * 1024

// AcceptedImageTypes are the MIME types an upload may declare.
var AcceptedImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
	"image/gif",
}

const (
	msgUnsupportedImage = "Please select a valid image format (JPEG, PNG, WebP, or GIF)"
	msgImageTooLarge    = "File size must be under 200MB"
)

// ValidationError rejects an upload before any network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func ValidateImage(mimeType string, size int64) error {
	if !slices.Contains(AcceptedImageTypes, mimeType) {
		return &ValidationError{Message: msgUnsupportedImage}
	}
	if size > MaxImageSize {
		return &ValidationError{Message: msgImageTooLarge}
	}
	return nil
}
