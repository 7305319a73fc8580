package models_test

import (
	"testing"

	"github.com/salepilot/salepilot_backend/models"
)

// Loader models must satisfy these interfaces; a missing method breaks
// the batch loaders, so pin them at compile time.
var (
	_ models.Data = models.Customer{}
	_ models.Data = models.PaymentMethod{}
	_ models.Data = models.Sale{}
	_ models.Data = models.Payment{}

	_ models.RelatedData = models.Payment{}
	_ models.RelatedData = models.Document{}
)

func TestPaymentMethodLoaderIdentity(t *testing.T) {
	pm := models.PaymentMethod{ID: 7, Name: "Transfer"}
	if pm.GetId() != 7 {
		t.Fatalf("GetId = %d, want 7", pm.GetId())
	}

	fallback, ok := pm.GetDefault(9).(models.PaymentMethod)
	if !ok {
		t.Fatalf("GetDefault returned %T, want PaymentMethod", pm.GetDefault(9))
	}
	if fallback.GetId() != 9 {
		t.Fatalf("fallback GetId = %d, want 9", fallback.GetId())
	}
	if fallback.Name != "Cash" {
		t.Fatalf("fallback name = %q, want Cash", fallback.Name)
	}
}
