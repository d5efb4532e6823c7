package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vbonduro/dishcarbon/internal/domain"
)

func TestWriteHistory(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	entries := []*domain.HistoryEntry{
		{
			ID:                1,
			Method:            domain.MethodText,
			Query:             "pizza",
			Dish:              "Pizza",
			EstimatedCarbonKg: 2.5,
			Ingredients: []domain.Ingredient{
				{Name: "Cheese", CarbonKg: 1.2},
				{Name: "Dough", CarbonKg: 0.8},
			},
			CreatedAt: created,
		},
		{
			ID:                2,
			Method:            domain.MethodImage,
			Query:             "salad.jpg",
			Dish:              "Caesar Salad",
			EstimatedCarbonKg: 0.4,
			CreatedAt:         created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(EstimationsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, estimationHeaders, rows[0])
	assert.Equal(t, []string{"1", "2026-03-04 05:06:07", "text", "pizza", "Pizza", "2.5", "Medium"}, rows[1])
	assert.Equal(t, "image", rows[2][2])
	assert.Equal(t, "Low", rows[2][6])

	ingRows, err := f.GetRows(IngredientsSheet)
	require.NoError(t, err)
	require.Len(t, ingRows, 3)
	assert.Equal(t, []string{"1", "Pizza", "Cheese", "1.2"}, ingRows[1])
	assert.Equal(t, []string{"1", "Pizza", "Dough", "0.8"}, ingRows[2])
}

func TestWriteHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(EstimationsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{EstimationsSheet, IngredientsSheet}, f.GetSheetList())
}
