package units

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "natural", false},
		{"natural", "natural", false},
		{"si", "si", false},
		{"furlongs", "", true},
	}

	for _, tt := range tests {
		got, err := Lookup(tt.name)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Lookup(%q) err = %v", tt.name, err)
		}
		if got.Name != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.name, got.Name, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := SI().Validate(); err != nil {
		t.Errorf("SI table invalid: %v", err)
	}

	bad := Natural()
	bad.MassScale = 0
	if err := bad.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}

	bad = Natural()
	bad.G = math.NaN()
	if err := bad.Validate(); err == nil {
		t.Error("expected error for NaN G")
	}
}

func TestForceAndAccelerationRoundTrip(t *testing.T) {
	for _, tab := range []Table{Natural(), SI()} {
		f := tab.Force(2, 3, 4)
		a := tab.Acceleration(f, 2)
		// a = G*m2*M / (r*L)^2 / L
		want := tab.G * 3 * tab.MassScale / math.Pow(4*tab.LengthScale, 2) / tab.LengthScale
		if math.Abs(a-want)/want > 1e-12 {
			t.Errorf("%s: acceleration %g, want %g", tab.Name, a, want)
		}
	}
}

func TestEarthSunForce(t *testing.T) {
	f := SI().Force(YgPerMsol, YgPerMearth, TmPerAu)
	// ~3.54e22 N
	if f < 3.5e22 || f > 3.6e22 {
		t.Errorf("earth-sun force = %g N", f)
	}
}

func TestSIMassScale(t *testing.T) {
	sun := SI().MassScale * YgPerMsol
	if math.Abs(sun-1.989e30)/1.989e30 > 1e-12 {
		t.Errorf("solar mass = %g kg, want 1.989e30", sun)
	}
	earth := SI().MassScale * YgPerMearth
	if math.Abs(earth-5.97219e24)/5.97219e24 > 1e-12 {
		t.Errorf("earth mass = %g kg, want 5.97219e24", earth)
	}
}
