package decoupling

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
)

func TestModulationShape(t *testing.T) {
	tests := []struct {
		name  string
		tau   float64
		order int
	}{
		{"even n", 10e-9, 1},
		{"odd n", 11e-9, 1},
		{"even n order 3", 24e-9, 3},
		{"odd n order 2", 7e-9, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Modulation(tc.tau, tc.order, DefaultTimeStep)
			if err != nil {
				t.Fatalf("Modulation: %v", err)
			}

			n := HalfPeriodSamples(tc.tau, DefaultTimeStep)
			if want := SlotsPerOrder * tc.order * n; len(v) != want {
				t.Fatalf("len = %d, want %d", len(v), want)
			}

			sum := 0.0
			for i, x := range v {
				if x != 1 && x != -1 {
					t.Fatalf("v[%d] = %v, want ±1", i, x)
				}
				sum += x
			}
			if sum != 0 {
				t.Fatalf("sum(v) = %v, want 0", sum)
			}

			half := n / 2
			if half > 0 && v[0] != 1 {
				t.Fatalf("v[0] = %v, want +1", v[0])
			}
			if v[half] != -1 || v[half+n] != 1 {
				t.Fatalf("interior signs at %d,%d = %v,%v; want -1,+1", half, half+n, v[half], v[half+n])
			}
			if v[len(v)-1] != 1 {
				t.Fatalf("last sample = %v, want +1", v[len(v)-1])
			}
		})
	}
}

func TestModulationIntoReusesBuffer(t *testing.T) {
	buf, err := ModulationInto(nil, 20e-9, 2, DefaultTimeStep)
	if err != nil {
		t.Fatalf("ModulationInto: %v", err)
	}

	// A shorter waveform fits in the old buffer and must not keep stale
	// samples from the longer one.
	short, err := ModulationInto(buf, 7e-9, 2, DefaultTimeStep)
	if err != nil {
		t.Fatalf("ModulationInto: %v", err)
	}
	if &short[0] != &buf[0] {
		t.Fatal("buffer was not reused")
	}

	want, _ := Modulation(7e-9, 2, DefaultTimeStep)
	if len(short) != len(want) {
		t.Fatalf("len = %d, want %d", len(short), len(want))
	}
	for i := range want {
		if short[i] != want[i] {
			t.Fatalf("v[%d] = %v, want %v", i, short[i], want[i])
		}
	}
}

func TestHalfPeriodSamplesExactMultiple(t *testing.T) {
	// 3·0.1 is slightly below 0.3 in floating point.
	if n := HalfPeriodSamples(3*0.1e-6, 0.1e-6); n != 3 {
		t.Fatalf("HalfPeriodSamples = %d, want 3", n)
	}
	if n := HalfPeriodSamples(200.1e-9, 1e-9); n != 200 {
		t.Fatalf("HalfPeriodSamples = %d, want 200", n)
	}
}

func TestModulationInvalid(t *testing.T) {
	tests := []struct {
		name  string
		tau   float64
		order int
		step  float64
	}{
		{"tau below step", 0.5e-9, 1, 1e-9},
		{"zero order", 10e-9, 0, 1e-9},
		{"zero step", 10e-9, 1, 0},
		{"negative tau", -10e-9, 1, 1e-9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Modulation(tc.tau, tc.order, tc.step)
			if !errors.Is(err, core.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
