package estimation

import "strings"

type ErrorCategory string

const (
	CategoryNotFood      ErrorCategory = "not_food"
	CategoryNotFoodImage ErrorCategory = "not_food_image"
	CategoryConnection   ErrorCategory = "connection"
	CategoryGeneric      ErrorCategory = "generic"
)

// ErrorInfo is the user-facing copy for a failed estimation.
type ErrorInfo struct {
	Category    ErrorCategory
	Title       string
	Description string
	Suggestion  string
}

// Substring rules, checked in order against the lowercased message. The
// backend is not obliged to phrase errors this way; anything unmatched gets
// the generic copy.
var (
	notFoodPhrases = []string{
		"does not appear to be food-related",
		"not food",
		"food-related",
	}
	notFoodImagePhrases = []string{
		"does not contain food",
		"image not recognized",
	}
	connectionPhrases = []string{
		"network",
		"fetch",
		"connection refused",
		"no such host",
		"dial tcp",
	}
)

// ClassifyError maps an error message to display copy.
func ClassifyError(msg string) ErrorInfo {
	lower := strings.ToLower(msg)

	switch {
	case containsAny(lower, notFoodPhrases):
		return ErrorInfo{
			Category:    CategoryNotFood,
			Title:       "Not a Food Item",
			Description: "Please enter a food or dish name.",
			Suggestion:  `Try something like "Pizza", "Chicken Curry", or "Caesar Salad".`,
		}
	case containsAny(lower, notFoodImagePhrases):
		return ErrorInfo{
			Category:    CategoryNotFoodImage,
			Title:       "Not a Food Image",
			Description: "The uploaded image doesn't show food.",
			Suggestion:  "Please upload a clear image of a dish or meal.",
		}
	case containsAny(lower, connectionPhrases):
		return ErrorInfo{
			Category:    CategoryConnection,
			Title:       "Connection Error",
			Description: "Unable to connect to the server.",
			Suggestion:  "Please check your internet connection and try again.",
		}
	default:
		return ErrorInfo{
			Category:    CategoryGeneric,
			Title:       "Estimation Error",
			Description: msg,
			Suggestion:  "Please try again with a different input.",
		}
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
