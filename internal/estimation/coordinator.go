package estimation

import "github.com/vbonduro/dishcarbon/internal/domain"

// Display is the single result slot shared by both input methods. Source is
// empty when there is nothing to show.
type Display struct {
	Result    *domain.EstimationResult
	Error     string
	IsLoading bool
	Source    domain.Method
}

// Empty reports whether neither method has anything to show.
func (d Display) Empty() bool {
	return d.Source == ""
}

func displayOf(s State, source domain.Method) Display {
	return Display{
		Result:    s.Result,
		Error:     s.Error,
		IsLoading: s.IsLoading,
		Source:    source,
	}
}

// Coordinate picks which state occupies the result slot. An in-flight call
// always wins, image first; once both are settled the last method the user
// submitted wins, falling back to whichever one has completed.
func Coordinate(text, image State, last domain.Method) Display {
	switch {
	case image.IsLoading:
		return displayOf(image, domain.MethodImage)
	case text.IsLoading:
		return displayOf(text, domain.MethodText)
	case last == domain.MethodText && text.Completed():
		return displayOf(text, domain.MethodText)
	case last == domain.MethodImage && image.Completed():
		return displayOf(image, domain.MethodImage)
	case text.Completed():
		return displayOf(text, domain.MethodText)
	case image.Completed():
		return displayOf(image, domain.MethodImage)
	default:
		return Display{}
	}
}

// ResetTargets lists the methods a combined reset clears: the last used one,
// or both when nothing has been submitted yet.
func ResetTargets(last domain.Method) []domain.Method {
	switch last {
	case domain.MethodText, domain.MethodImage:
		return []domain.Method{last}
	default:
		return []domain.Method{domain.MethodText, domain.MethodImage}
	}
}

// ShowSamples reports whether the sample dish shortcuts should be offered:
// only while neither method holds a result or an error.
func ShowSamples(text, image State) bool {
	return text.Result == nil && image.Result == nil && text.Error == "" && image.Error == ""
}

// SourceLabel is the human label for a display source.
func SourceLabel(m domain.Method) string {
	switch m {
	case domain.MethodText:
		return "Text input"
	case domain.MethodImage:
		return "Image upload"
	default:
		return ""
	}
}
