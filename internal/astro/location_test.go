package astro

import (
	"errors"
	"testing"
)

func TestParseLatitude(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"36.96 N", 36.96, false},
		{"36.96N", 36.96, false},
		{"33.8 s", -33.8, false},
		{"-33.8", -33.8, false},
		{" 42.36 ", 42.36, false},
		{"91 N", 0, true},
		{"-10 S", 0, true},
		{"36.96 E", 0, true},
		{"", 0, true},
		{"north", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLatitude(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCoordinate) {
					t.Fatalf("ParseLatitude(%q) error = %v, want ErrInvalidCoordinate", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLatitude(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLatitude(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseObserver(t *testing.T) {
	obs, err := ParseObserver("36.96 N", "86.49 W")
	if err != nil {
		t.Fatalf("ParseObserver: %v", err)
	}
	if obs.LatDeg != 36.96 || obs.LonDeg != -86.49 {
		t.Errorf("got %+v", obs)
	}

	if _, err := ParseObserver("36.96 N", "181 E"); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("out-of-range longitude error = %v", err)
	}
}

func TestFormatCoordinates(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatLatitude(36.96), "36.9600N"},
		{FormatLatitude(-33.8), "33.8000S"},
		{FormatLatitude(-0.00001), "0.0000N"},
		{FormatLongitude(-86.49), "86.4900W"},
		{FormatLongitude(151.2093), "151.2093E"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
