package slips

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"garment-backend/internal/models"

	"github.com/shopspring/decimal"
)

func TestSignAndVerify(t *testing.T) {
	s := NewSigner("test-secret", "garment-backend", time.Hour)

	token, err := s.Sign(7, "STL-000007", 3, "-200.00")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SettlementID != 7 || claims.SettlementNumber != "STL-000007" || claims.EmployeeID != 3 || claims.NetPayable != "-200.00" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Subject != "7" || claims.Issuer != "garment-backend" {
		t.Fatalf("unexpected registered claims %+v", claims.RegisteredClaims)
	}
}

func TestVerifyRejects(t *testing.T) {
	s := NewSigner("test-secret", "garment-backend", time.Hour)
	token, err := s.Sign(1, "STL-000001", 1, "10.00")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other := NewSigner("other-secret", "garment-backend", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: got %v", err)
	}

	wrongIssuer := NewSigner("test-secret", "someone-else", time.Hour)
	if _, err := wrongIssuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong issuer: got %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := s.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered: got %v", err)
	}

	noExpiry := NewSigner("test-secret", "garment-backend", -time.Minute)
	// negative ttl means no expiry is set
	if tok, err := noExpiry.Sign(1, "STL-000001", 1, "10.00"); err != nil {
		t.Fatalf("Sign: %v", err)
	} else if _, err := s.Verify(tok); err != nil {
		t.Fatalf("token without expiry should verify: %v", err)
	}
}

func TestSigningDisabled(t *testing.T) {
	s := NewSigner("", "garment-backend", time.Hour)
	if s.Enabled() {
		t.Fatal("signer without secret reports enabled")
	}
	if _, err := s.Sign(1, "STL-000001", 1, "0"); !errors.Is(err, ErrSigningDisabled) {
		t.Fatalf("Sign: got %v", err)
	}
	if _, err := s.Verify("abc"); !errors.Is(err, ErrSigningDisabled) {
		t.Fatalf("Verify: got %v", err)
	}
}

func TestRender(t *testing.T) {
	detail := &models.SettlementDetail{
		Settlement: models.Settlement{
			ID:                    1,
			SettlementNumber:      "STL-000001",
			SettlementDate:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			TotalProductionAmount: decimal.RequireFromString("300"),
			AdvancesDeducted:      decimal.RequireFromString("500"),
			NetPayable:            decimal.RequireFromString("-200"),
			PaymentMode:           models.PaymentModeCash,
			Remarks:               "carry forward",
		},
		Entries: []models.ProductionEntry{
			{BatchID: 1, BatchNumber: "B-1", Department: "Stitching", Quantity: 30, Rate: decimal.RequireFromString("10"), Amount: decimal.RequireFromString("300")},
		},
		Advances: []models.Advance{
			{ID: 1, Amount: decimal.RequireFromString("500"), PaymentMode: models.PaymentModeCash},
		},
	}

	out, err := Render(&Slip{
		CompanyName: "Garment Works",
		Employee:    &models.Employee{Name: "Ravi", Phone: "9000000000"},
		Detail:      detail,
		Token:       "header.payload.signature",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 8)])
	}
}
