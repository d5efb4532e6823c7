// Package export writes estimation history as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
)

const (
	EstimationsSheet = "Estimations"
	IngredientsSheet = "Ingredients"

	timeLayout = "2006-01-02 15:04:05"
)

var (
	estimationHeaders = []string{"ID", "Created", "Method", "Query", "Dish", "Estimated kg CO2e", "Impact"}
	ingredientHeaders = []string{"Estimation ID", "Dish", "Ingredient", "kg CO2e"}
)

// WriteHistory writes entries to w as a two-sheet workbook.
func WriteHistory(w io.Writer, entries []*domain.HistoryEntry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), EstimationsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(IngredientsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header, err := headerStyle(f)
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := writeRow(f, EstimationsSheet, 1, header, toAny(estimationHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, IngredientsSheet, 1, header, toAny(ingredientHeaders)); err != nil {
		return err
	}

	ingRow := 2
	for i, e := range entries {
		row := []any{
			e.ID,
			e.CreatedAt.UTC().Format(timeLayout),
			string(e.Method),
			e.Query,
			e.Dish,
			e.EstimatedCarbonKg,
			string(estimation.ImpactLevel(e.EstimatedCarbonKg)),
		}
		if err := writeRow(f, EstimationsSheet, i+2, 0, row); err != nil {
			return err
		}
		for _, ing := range e.Ingredients {
			if err := writeRow(f, IngredientsSheet, ingRow, 0, []any{e.ID, e.Dish, ing.Name, ing.CarbonKg}); err != nil {
				return err
			}
			ingRow++
		}
	}

	if err := setWidths(f, EstimationsSheet, []float64{8, 20, 10, 30, 30, 18, 10}); err != nil {
		return err
	}
	if err := setWidths(f, IngredientsSheet, []float64{14, 30, 30, 12}); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"15803D"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

// writeRow writes values starting at column A; a zero style leaves cells unstyled.
func writeRow(f *excelize.File, sheet string, row, style int, values []any) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	if style == 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}

func setWidths(f *excelize.File, sheet string, widths []float64) error {
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
