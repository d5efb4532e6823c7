package estimation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/dishcarbon/internal/domain"
)

var (
	idle      = State{}
	loading   = State{IsLoading: true, HasStarted: true, Seq: 1}
	succeeded = State{Result: pizza, HasStarted: true, Seq: 1}
	failed    = State{Error: "boom", HasStarted: true, Seq: 1}
)

func TestCoordinate(t *testing.T) {
	tests := []struct {
		name       string
		text       State
		image      State
		last       domain.Method
		wantSource domain.Method
		wantLoad   bool
	}{
		{name: "image loading beats text result", text: succeeded, image: loading, last: domain.MethodText, wantSource: domain.MethodImage, wantLoad: true},
		{name: "image loading beats text loading", text: loading, image: loading, last: domain.MethodText, wantSource: domain.MethodImage, wantLoad: true},
		{name: "text loading beats image result", text: loading, image: succeeded, last: domain.MethodImage, wantSource: domain.MethodText, wantLoad: true},
		{name: "last used text", text: failed, image: succeeded, last: domain.MethodText, wantSource: domain.MethodText},
		{name: "last used image", text: succeeded, image: failed, last: domain.MethodImage, wantSource: domain.MethodImage},
		{name: "last used text but idle falls back to image", text: idle, image: succeeded, last: domain.MethodText, wantSource: domain.MethodImage},
		{name: "fallback to text", text: succeeded, image: idle, last: "", wantSource: domain.MethodText},
		{name: "fallback prefers text when both done", text: succeeded, image: succeeded, last: "", wantSource: domain.MethodText},
		{name: "fallback to image", text: idle, image: failed, last: "", wantSource: domain.MethodImage},
		{name: "both idle", text: idle, image: idle, last: "", wantSource: ""},
		{name: "both idle after use", text: idle, image: idle, last: domain.MethodImage, wantSource: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Coordinate(tt.text, tt.image, tt.last)
			assert.Equal(t, tt.wantSource, d.Source)
			assert.Equal(t, tt.wantLoad, d.IsLoading)
			assert.Equal(t, tt.wantSource == "", d.Empty())
		})
	}
}

func TestCoordinateCarriesChosenState(t *testing.T) {
	d := Coordinate(succeeded, failed, domain.MethodImage)
	assert.Equal(t, "boom", d.Error)
	assert.Nil(t, d.Result)

	d = Coordinate(succeeded, failed, domain.MethodText)
	assert.Same(t, pizza, d.Result)
	assert.Empty(t, d.Error)
}

func TestResetTargets(t *testing.T) {
	assert.Equal(t, []domain.Method{domain.MethodText}, ResetTargets(domain.MethodText))
	assert.Equal(t, []domain.Method{domain.MethodImage}, ResetTargets(domain.MethodImage))
	assert.Equal(t, []domain.Method{domain.MethodText, domain.MethodImage}, ResetTargets(""))
}

func TestShowSamples(t *testing.T) {
	assert.True(t, ShowSamples(idle, idle))
	assert.True(t, ShowSamples(loading, idle))
	assert.False(t, ShowSamples(succeeded, idle))
	assert.False(t, ShowSamples(idle, failed))
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "Text input", SourceLabel(domain.MethodText))
	assert.Equal(t, "Image upload", SourceLabel(domain.MethodImage))
	assert.Empty(t, SourceLabel(""))
}
