package model

import (
	"encoding/json"
	"testing"
)

func TestPriceUnmarshalVariants(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  Price
	}{
		{"number", `12.5`, Price{Value: 12.5, Valid: true}},
		{"string", `"99.9"`, Price{Value: 99.9, Valid: true}},
		{"null", `null`, Price{}},
		{"empty string", `""`, Price{}},
		{"zero", `0`, Price{Value: 0, Valid: true}},
	}

	for _, tc := range cases {
		var got Price
		if err := json.Unmarshal([]byte(tc.input), &got); err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestPriceUnmarshalRejectsGarbage(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`"not-a-number"`), &p); err == nil {
		t.Error("expected error for non-numeric string")
	}
}

func TestPriceMarshalRoundTrip(t *testing.T) {
	out, err := json.Marshal(Price{})
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(out) != "null" {
		t.Errorf("missing price must serialize as null, got %s", out)
	}

	out, err = json.Marshal(NewPrice(42))
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(out) != "42" {
		t.Errorf("expected 42, got %s", out)
	}
}

func TestTimelineRecordUnmarshalLooseFeed(t *testing.T) {
	raw := `{
		"order_id": "o1",
		"template_name": "AK-47 | Redline (Field-Tested)",
		"price": "245.50",
		"position": 3,
		"abrade": "0.2511",
		"stickers": [{"Name": "Katowice 2014"}],
		"crawl_time": 1700000000000
	}`

	var rec TimelineRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !rec.Price.Valid || rec.Price.Value != 245.50 {
		t.Errorf("expected quoted price parsed, got %+v", rec.Price)
	}
	if len(rec.Stickers) != 1 || rec.Stickers[0].Name != "Katowice 2014" {
		t.Errorf("unexpected stickers: %+v", rec.Stickers)
	}
}

func TestNewTimeWindow(t *testing.T) {
	w := NewTimeWindow(1_700_000_000_000, 24)
	if w.EndMs-w.StartMs != 24*3600*1000 {
		t.Errorf("unexpected window span: %+v", w)
	}
	if !w.Contains(w.StartMs) {
		t.Error("lower bound must be inclusive")
	}
	if w.Contains(w.StartMs - 1) {
		t.Error("timestamps before the window must be excluded")
	}
}
