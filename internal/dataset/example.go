package dataset

import (
	"bytes"
	"math"

	"github.com/banshee-data/racetime/internal/dva"
)

// InputHeader is the header row users are asked to provide.
var InputHeader = []string{"Time (s)", "Force (N)", "CO2 Mass (Mco2)", "Drag (FD)"}

// ExampleFileName is the download name of the example table.
const ExampleFileName = "RTC_example_data.csv"

// Synthetic 8 g cartridge burn used for the example table.
const (
	exampleStep       = 0.01  // s
	exampleDuration   = 1.2   // s
	exampleTrigger    = 0.03  // s before the puncture
	exampleRise       = 0.015 // s to peak thrust
	examplePeak       = 24.0  // N
	exampleDecay      = 0.09  // s, exponential tail
	exampleCartridge  = 8.0   // g of CO2
	exampleDragCoeff  = 0.004 // N per (m/s)²
	exampleDragBase   = 0.01  // N
	exampleSpeedScale = 28.0  // m/s reached near burnout
)

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func exampleThrust(t float64) float64 {
	switch {
	case t < exampleTrigger:
		return 0
	case t < exampleTrigger+exampleRise:
		return examplePeak * (t - exampleTrigger) / exampleRise
	default:
		return examplePeak * math.Exp(-(t-exampleTrigger-exampleRise)/exampleDecay)
	}
}

// ExampleSamples returns a deterministic synthetic run: an idle lead-in, a
// sharp thrust peak, an exponential tail and speed-dependent drag.
func ExampleSamples() []dva.Sample {
	n := int(math.Round(exampleDuration/exampleStep)) + 1

	// Cumulative impulse drives both the propellant burn-off and the rough
	// speed estimate used for drag.
	impulse := make([]float64, n)
	for i := 1; i < n; i++ {
		t0, t1 := float64(i-1)*exampleStep, float64(i)*exampleStep
		impulse[i] = impulse[i-1] + (exampleThrust(t0)+exampleThrust(t1))/2*exampleStep
	}
	total := impulse[n-1]

	samples := make([]dva.Sample, n)
	for i := range samples {
		t := float64(i) * exampleStep
		frac := impulse[i] / total
		v := exampleSpeedScale * frac
		samples[i] = dva.Sample{
			Time:    round4(t),
			Force:   round4(exampleThrust(t)),
			CO2Mass: round4(exampleCartridge * (1 - frac)),
			Drag:    round4(exampleDragBase + exampleDragCoeff*v*v),
		}
	}
	return samples
}

// ExampleCSV renders ExampleSamples as a CSV document.
func ExampleCSV() []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes cannot fail.
	_ = WriteSamples(&buf, ExampleSamples())
	return buf.Bytes()
}
