package estimation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		msg  string
		want ErrorCategory
	}{
		{msg: "Input does not appear to be food-related", want: CategoryNotFood},
		{msg: "That is NOT FOOD", want: CategoryNotFood},
		{msg: "This image does not contain food. Please upload a clear image of a dish or meal.", want: CategoryNotFoodImage},
		{msg: "Image not recognized", want: CategoryNotFoodImage},
		{msg: "network error: dial tcp 127.0.0.1:8000: connect: connection refused", want: CategoryConnection},
		{msg: "Failed to fetch", want: CategoryConnection},
		{msg: "lookup backend: no such host", want: CategoryConnection},
		{msg: "LLM Error: quota exceeded", want: CategoryGeneric},
		{msg: "", want: CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.msg).Category)
		})
	}
}

func TestClassifyErrorCopy(t *testing.T) {
	info := ClassifyError("Input does not appear to be food-related")
	assert.Equal(t, "Not a Food Item", info.Title)
	assert.Equal(t, "Please enter a food or dish name.", info.Description)

	generic := ClassifyError("HTTP error: 500")
	assert.Equal(t, "Estimation Error", generic.Title)
	assert.Equal(t, "HTTP error: 500", generic.Description)
	assert.NotEmpty(t, generic.Suggestion)
}
