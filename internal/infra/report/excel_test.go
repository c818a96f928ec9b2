package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/stockerhq/quality/internal/domain/quality"
)

func TestBuildRegister(t *testing.T) {
	tenant := uuid.MustParse("4f9c0f9a-9a53-4b2e-8f5e-0f1c7c9f2d11")
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	rec, err := quality.NewInspectionRecord(tenant, "QC-2026-000007", 42, quality.TypeIncoming,
		decimal.NewFromInt(100), "pcs", now)
	if err != nil {
		t.Fatalf("NewInspectionRecord: %v", err)
	}
	if err := rec.StartInspection("Jane Doe", nil, now); err != nil {
		t.Fatalf("StartInspection: %v", err)
	}
	score := decimal.RequireFromString("98")
	if err := rec.CompleteInspection(quality.ResultPassed,
		decimal.NewFromInt(100), decimal.Zero, &score, "A", now); err != nil {
		t.Fatalf("CompleteInspection: %v", err)
	}

	buf, err := BuildRegister([]quality.InspectionRecord{*rec})
	if err != nil {
		t.Fatalf("BuildRegister: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 data row, got %d rows", len(rows))
	}
	if rows[0][0] != "qc_number" {
		t.Errorf("unexpected first header cell %q", rows[0][0])
	}

	data := rows[1]
	if data[0] != "QC-2026-000007" {
		t.Errorf("expected qc number in first cell, got %q", data[0])
	}
	if data[2] != "completed" || data[3] != "passed" {
		t.Errorf("expected completed/passed, got %q/%q", data[2], data[3])
	}
	if data[11] != "98" {
		t.Errorf("expected score 98, got %q", data[11])
	}
}

func TestBuildRegister_Empty(t *testing.T) {
	buf, err := BuildRegister(nil)
	if err != nil {
		t.Fatalf("BuildRegister: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected only the header row, got %d", len(rows))
	}
}
