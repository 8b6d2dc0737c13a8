package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"garment-backend/internal/models"
	"garment-backend/internal/slips"

	"github.com/xuri/excelize/v2"
)

type recordingArchive struct {
	keys []string
	err  error
}

func (r *recordingArchive) Put(ctx context.Context, key string, body []byte, contentType string) error {
	r.keys = append(r.keys, key)
	return r.err
}

func (f *fixture) settleOne(t *testing.T, deduct bool) *models.SettlementDetail {
	t.Helper()
	batch := f.newBatch(t, "B-SLIP", 100)
	detail, err := f.svc.Settle(context.Background(), &models.SettleRequest{
		EmployeeID:     f.employee.ID,
		SettlementDate: "2024-03-09",
		Rows:           []models.SettlementRow{row(batch.ID, "Stitching", 30, "10")},
		DeductAdvances: deduct,
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	return detail
}

func TestSlipRenderSignsAndArchives(t *testing.T) {
	f := newFixture(t)
	f.newAdvance(t, f.employee.ID, "500", 1)
	detail := f.settleOne(t, true)

	archive := &recordingArchive{err: errors.New("bucket unavailable")}
	signer := slips.NewSigner("secret", "garment-backend", time.Hour)
	svc := NewSlipService(f.svc, f.store, signer, archive, "Garment Works")

	file, err := svc.Slip(context.Background(), detail.ID)
	if err != nil {
		t.Fatalf("Slip: %v", err)
	}
	if file.Name != detail.SettlementNumber+".pdf" || !bytes.HasPrefix(file.Body, []byte("%PDF-")) {
		t.Fatalf("unexpected slip %q (%d bytes)", file.Name, len(file.Body))
	}
	if len(archive.keys) != 1 || archive.keys[0] != "slips/2024-03/"+detail.SettlementNumber+".pdf" {
		t.Fatalf("archive keys = %v", archive.keys)
	}

	if _, err := svc.Slip(context.Background(), 999); !errors.Is(err, ErrSettlementNotFound) {
		t.Fatalf("missing settlement: got %v", err)
	}
}

func TestSlipVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newAdvance(t, f.employee.ID, "500", 1)
	detail := f.settleOne(t, true)

	signer := slips.NewSigner("secret", "garment-backend", time.Hour)
	svc := NewSlipService(f.svc, f.store, signer, nil, "Garment Works")

	token, err := signer.Sign(detail.ID, detail.SettlementNumber, detail.EmployeeID, detail.NetPayable.StringFixed(2))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	res, err := svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.Valid || res.NetPayable != "-200.00" {
		t.Fatalf("unexpected verification %+v", res)
	}

	forged, _ := signer.Sign(detail.ID, detail.SettlementNumber, detail.EmployeeID, "9999.00")
	if res, err := svc.Verify(ctx, forged); err != nil || res.Valid || res.Reason != "net payable mismatch" {
		t.Fatalf("altered figures: %+v %v", res, err)
	}

	if _, _, err := f.svc.ReverseSettlement(ctx, detail.ID); err != nil {
		t.Fatalf("ReverseSettlement: %v", err)
	}
	if res, err := svc.Verify(ctx, token); err != nil || res.Valid {
		t.Fatalf("reversed settlement: %+v %v", res, err)
	}

	if _, err := svc.Verify(ctx, "not-a-token"); !errors.Is(err, slips.ErrInvalidToken) {
		t.Fatalf("garbage token: got %v", err)
	}
}

func TestExportEmployeeSettlements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.settleOne(t, false)
	svc := NewExportService(f.svc, f.store)

	var buf bytes.Buffer
	employee, err := svc.EmployeeSettlements(ctx, f.employee.ID, &buf)
	if err != nil {
		t.Fatalf("EmployeeSettlements: %v", err)
	}
	if ExportFileName(employee) == "" {
		t.Fatal("empty file name")
	}

	wb, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(settlementsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != detail.SettlementNumber || rows[1][1] != "2024-03-09" || rows[1][4] != "300" {
		t.Fatalf("settlement rows = %v", rows)
	}
	entries, err := wb.GetRows(entriesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(entries) != 2 || entries[1][1] != "B-SLIP" || entries[1][3] != "30" {
		t.Fatalf("entry rows = %v", entries)
	}

	if _, err := svc.EmployeeSettlements(ctx, 999, &buf); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("unknown employee: got %v", err)
	}
}
