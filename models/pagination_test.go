package models_test

import (
	"testing"

	"github.com/salepilot/salepilot_backend/models"
)

func TestCompositeCursor_RoundTrip(t *testing.T) {
	encoded := models.EncodeCompositeCursor("2026-03-01 10:30:00", 42)
	ts, id := models.DecodeCompositeCursor(&encoded)
	if ts != "2026-03-01 10:30:00" || id != 42 {
		t.Errorf("got (%q, %d), want (%q, %d)", ts, id, "2026-03-01 10:30:00", 42)
	}
}

func TestDecodeCompositeCursor_Invalid(t *testing.T) {
	bad := "not-base64!!"
	ts, id := models.DecodeCompositeCursor(&bad)
	if ts != "" || id != 0 {
		t.Errorf("invalid base64: got (%q, %d), want empty", ts, id)
	}

	noSep := models.EncodeCursor("just-a-string")
	ts, id = models.DecodeCompositeCursor(&noSep)
	if ts != "" || id != 0 {
		t.Errorf("missing separator: got (%q, %d), want empty", ts, id)
	}

	ts, id = models.DecodeCompositeCursor(nil)
	if ts != "" || id != 0 {
		t.Errorf("nil cursor: got (%q, %d), want empty", ts, id)
	}
}

func TestDecodeCursor(t *testing.T) {
	encoded := models.EncodeCursor("TXN-000123")
	decoded, err := models.DecodeCursor(&encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded != "TXN-000123" {
		t.Errorf("got %q, want %q", decoded, "TXN-000123")
	}

	decoded, err = models.DecodeCursor(nil)
	if err != nil || decoded != "" {
		t.Errorf("nil cursor: got (%q, %v), want empty", decoded, err)
	}
}
