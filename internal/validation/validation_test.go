package validation

import (
	"errors"
	"testing"

	"github.com/Shubhankar4862/weather/internal/models"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestValidatePayload_Shapes(t *testing.T) {
	cases := []struct {
		name    string
		payload models.LocationPayload
		wantErr error
	}{
		{"zip only", models.LocationPayload{Zip: strPtr("94040")}, nil},
		{"zip with country", models.LocationPayload{Zip: strPtr("94040,jp")}, nil},
		{"coordinate pair", models.LocationPayload{Lat: floatPtr(37.4), Lon: floatPtr(-122.1)}, nil},
		{"zero coordinates are present", models.LocationPayload{Lat: floatPtr(0), Lon: floatPtr(0)}, nil},
		{"empty payload", models.LocationPayload{}, ErrInvalidLocationShape},
		{"lat without lon", models.LocationPayload{Lat: floatPtr(37.4)}, ErrInvalidLocationShape},
		{"lon without lat", models.LocationPayload{Lon: floatPtr(-122.1)}, ErrInvalidLocationShape},
		{"both modes", models.LocationPayload{Zip: strPtr("94040"), Lat: floatPtr(37.4), Lon: floatPtr(-122.1)}, ErrInvalidLocationShape},
		{"zip plus stray lat", models.LocationPayload{Zip: strPtr("94040"), Lat: floatPtr(37.4)}, ErrInvalidLocationShape},
		{"blank zip is absent", models.LocationPayload{Zip: strPtr("   ")}, ErrInvalidLocationShape},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidatePayload(tc.payload, 0, true)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidatePayload(%+v) error = %v, want %v", tc.payload, err, tc.wantErr)
			}
		})
	}
}

func TestValidatePayload_Cap(t *testing.T) {
	payload := models.LocationPayload{Zip: strPtr("94040")}

	if _, err := ValidatePayload(payload, 4, true); err != nil {
		t.Errorf("create with 4 existing locations: unexpected error %v", err)
	}
	if _, err := ValidatePayload(payload, 5, true); !errors.Is(err, ErrLocationLimitExceeded) {
		t.Errorf("create with 5 existing locations: error = %v, want ErrLocationLimitExceeded", err)
	}
	if _, err := ValidatePayload(payload, 6, true); !errors.Is(err, ErrLocationLimitExceeded) {
		t.Errorf("create with 6 existing locations: error = %v, want ErrLocationLimitExceeded", err)
	}
}

func TestValidatePayload_CapNotCheckedOnUpdate(t *testing.T) {
	payload := models.LocationPayload{Zip: strPtr("94040")}
	if _, err := ValidatePayload(payload, 5, false); err != nil {
		t.Errorf("update with 5 existing locations: unexpected error %v", err)
	}
}

func TestValidatePayload_NormalizesBlankZip(t *testing.T) {
	p, err := ValidatePayload(models.LocationPayload{Zip: strPtr(" 94040 "), Lat: nil, Lon: nil}, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Zip == nil || *p.Zip != "94040" {
		t.Errorf("zip = %v, want trimmed 94040", p.Zip)
	}
}
