// Command xy8info prints properties of XY8-N filter functions.
//
// Usage:
//
//	xy8info [flags] tau-ns ...
//
// Each τ is given in nanoseconds. For every τ the tool prints the samples
// per half-period n, the waveform length L, the strongest non-DC bin of the
// one-sided power spectrum, the residual DC power and the band that
// BuildTable would use for the whole list.
//
// Examples:
//
//	xy8info 100 150 200
//	xy8info -order 16 -fft 4194304 120
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-nvdepth/dsp/decoupling"
)

func main() {
	order := flag.Int("order", 8, "XY8 repetition count N")
	fftSize := flag.Int("fft", decoupling.DefaultFFTSize, "zero-padded FFT length G")
	step := flag.Float64("step", decoupling.DefaultTimeStep, "waveform time step in s")
	realFFT := flag.Bool("real", false, "use the gonum real FFT backend")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: xy8info [flags] tau-ns ...\n\n")
		fmt.Fprintf(os.Stderr, "Prints filter-function properties of XY8-N sequences.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  xy8info 100 150 200\n")
		fmt.Fprintf(os.Stderr, "  xy8info -order 16 -fft 4194304 120\n")
	}
	flag.Parse()

	taus, err := parseTaus(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	opts := []decoupling.SynthOption{decoupling.WithTimeStep(*step)}
	if *realFFT {
		opts = append(opts, decoupling.WithRealFFT())
	}

	if err := printInfo(os.Stdout, taus, *order, *fftSize, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseTaus(args []string) ([]float64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no tau given")
	}

	taus := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("tau %q: %w", arg, err)
		}
		taus[i] = v * 1e-9
	}
	return taus, nil
}

func printInfo(w io.Writer, taus []float64, order, fftSize int, opts ...decoupling.SynthOption) error {
	syn, err := decoupling.NewSynthesizer(order, fftSize, opts...)
	if err != nil {
		return err
	}

	band := "-"
	if b, err := decoupling.BandFor(taus); err == nil {
		band = fmt.Sprintf("%.3f .. %.3f", b.Lo/1e6, b.Hi/1e6)
	}

	tw := newTable(w)
	tw.row("tau [ns]", "n", "L", "peak [MHz]", "1/2tau [MHz]", "peak power", "DC power", "band [MHz]")
	tw.row("--------", "-", "-", "----------", "------------", "----------", "--------", "----------")

	for _, tau := range taus {
		sp, err := syn.OneSided(tau)
		if err != nil {
			return fmt.Errorf("tau %.6g ns: %w", tau*1e9, err)
		}

		k := 1 + floats.MaxIdx(sp.Power[1:])
		tw.row(
			fmt.Sprintf("%.3f", tau*1e9),
			fmt.Sprintf("%d", decoupling.HalfPeriodSamples(tau, syn.TimeStep())),
			fmt.Sprintf("%d", decoupling.Length(tau, order, syn.TimeStep())),
			fmt.Sprintf("%.4f", sp.Freq[k]/1e6),
			fmt.Sprintf("%.4f", 1/(2*tau)/1e6),
			fmt.Sprintf("%.4g", sp.Power[k]),
			fmt.Sprintf("%.3g", sp.Power[0]),
			band,
		)
	}

	return tw.flush()
}
