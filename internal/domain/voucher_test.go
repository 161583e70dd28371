package domain

import (
	"testing"
	"time"

	"gorm.io/datatypes"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestVoucherIsUsableNow(t *testing.T) {
	limit := 2
	v := Voucher{
		Status:     VoucherActive,
		StartDate:  mustDate("2026-01-01"),
		EndDate:    mustDate("2026-12-31"),
		UsageLimit: &limit,
		UsageCount: 0,
	}

	now := mustDate("2026-06-15")
	if !v.IsUsableNow(now) {
		t.Fatal("expected usable")
	}

	if v.IsUsableNow(mustDate("2025-12-31")) {
		t.Error("usable before start date")
	}
	if v.IsUsableNow(mustDate("2027-01-01")) {
		t.Error("usable after end date")
	}

	v.UsageCount = 2
	if v.IsUsableNow(now) {
		t.Error("usable at usage limit")
	}
	v.UsageCount = 0

	v.Status = VoucherInactive
	if v.IsUsableNow(now) {
		t.Error("usable while inactive")
	}
}

func TestVoucherAppliesToHotel(t *testing.T) {
	all := Voucher{Scope: ScopeAllHotels}
	if !all.AppliesToHotel(42) {
		t.Error("ALL_HOTELS should apply everywhere")
	}

	scoped := Voucher{
		Scope:    ScopeSpecificHotels,
		HotelIDs: datatypes.JSON([]byte(`[1,2,3]`)),
	}
	if !scoped.AppliesToHotel(2) {
		t.Error("hotel in list should apply")
	}
	if scoped.AppliesToHotel(9) {
		t.Error("hotel not in list should not apply")
	}

	broken := Voucher{Scope: ScopeSpecificHotels}
	if broken.AppliesToHotel(1) {
		t.Error("missing hotel list should not apply")
	}
}
