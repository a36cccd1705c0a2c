package model

import (
	"testing"

	"riskcalc/internal/types"
)

func TestNewPositionDropsUnknownFields(t *testing.T) {
	p := NewPosition(map[types.PositionField]float64{
		types.FieldUnits:            10,
		types.PositionField("lots"): 3,
	})
	if p.Len() != 1 {
		t.Fatalf("expected 1 field, got %v", p.Map())
	}
	if _, ok := p.Map()["lots"]; ok {
		t.Error("unknown field kept")
	}
}

func TestPositionFieldsCanonicalOrder(t *testing.T) {
	p := NewPosition(map[types.PositionField]float64{
		types.FieldRiskPercent:  1,
		types.FieldEntryPrice:   2,
		types.FieldAccountValue: 3,
	})
	got := p.Fields()
	want := []types.PositionField{types.FieldAccountValue, types.FieldEntryPrice, types.FieldRiskPercent}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestBuilderDoesNotAliasPosition(t *testing.T) {
	src := map[types.PositionField]float64{types.FieldEntryPrice: 100}
	p := NewPosition(src)
	src[types.FieldUnits] = 5
	if p.Has(types.FieldUnits) {
		t.Fatal("position shares the caller's map")
	}

	b := p.Builder()
	b.Set(types.FieldStopLossPrice, 95)
	if p.Has(types.FieldStopLossPrice) {
		t.Fatal("builder writes leaked into the source position")
	}

	out := b.Build()
	b.Set(types.FieldUnits, 1)
	if out.Has(types.FieldUnits) {
		t.Fatal("built position changed after further builder writes")
	}
	if !b.HasAll(types.FieldEntryPrice, types.FieldStopLossPrice, types.FieldUnits) {
		t.Error("builder lost values")
	}
	if b.HasAll(types.FieldRiskCurrency) {
		t.Error("HasAll reported an absent field")
	}
}

func TestPositionRound(t *testing.T) {
	p := NewPosition(map[types.PositionField]float64{
		types.FieldStopLossPercent: 33.333333,
		types.FieldRiskCurrency:    2.345,
	})

	r := p.Round(2)
	if v, _ := r.Get(types.FieldStopLossPercent); v != 33.33 {
		t.Errorf("expected 33.33, got %v", v)
	}
	if v, _ := r.Get(types.FieldRiskCurrency); v != 2.35 {
		t.Errorf("expected half away from zero, got %v", v)
	}
	if v, _ := p.Get(types.FieldStopLossPercent); v != 33.333333 {
		t.Errorf("Round modified the receiver: %v", v)
	}

	same := p.Round(-1)
	if v, _ := same.Get(types.FieldStopLossPercent); v != 33.333333 {
		t.Errorf("negative precision must not round, got %v", v)
	}
}
