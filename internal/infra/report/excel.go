package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/stockerhq/quality/internal/domain/quality"
)

// BuildRegister renders the inspection register as an .xlsx workbook, one row
// per record, in the column order the QC office expects.
func BuildRegister(records []quality.InspectionRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"qc_number",
		"type",
		"status",
		"result",
		"inspection_date",
		"product_id",
		"lot_number",
		"inspected_qty",
		"accepted_qty",
		"rejected_qty",
		"unit",
		"quality_score",
		"quality_grade",
		"rejection_category",
		"rejection_reason",
		"recommended_action",
		"applied_action",
		"inspector",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("register header: %w", err)
	}

	row := 2
	for _, rec := range records {
		score := ""
		if rec.QualityScore != nil {
			score = rec.QualityScore.String()
		}
		category := ""
		if rec.RejectionCategory != nil {
			category = rec.RejectionCategory.String()
		}
		recommended := ""
		if rec.RecommendedAction != 0 {
			recommended = rec.RecommendedAction.String()
		}
		applied := ""
		if rec.AppliedAction != nil {
			applied = rec.AppliedAction.String()
		}

		excelRow := []interface{}{
			rec.QcNumber,
			rec.QcType.String(),
			rec.Status.String(),
			rec.Result.String(),
			rec.InspectionDate.Format("2006-01-02"),
			rec.ProductID,
			rec.LotNumber,
			rec.InspectedQuantity.String(),
			rec.AcceptedQuantity.String(),
			rec.RejectedQuantity.String(),
			rec.Unit,
			score,
			rec.QualityGrade,
			category,
			rec.RejectionReason,
			recommended,
			applied,
			rec.InspectorName,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("register cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, fmt.Errorf("register row %d: %w", row, err)
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("register write: %w", err)
	}
	return buf, nil
}
