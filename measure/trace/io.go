package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
)

const (
	fieldsPerLine = 5
	commentMarker = "#"
	header        = "# tau_s\tc_up\tc_down\tsigma_up\tsigma_down"
)

// Read parses a count trace. Samples are returned in file order; ordering
// constraints are checked by [CountTrace.Validate].
func Read(r io.Reader) (CountTrace, error) {
	var out CountTrace

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if idx := strings.Index(line, commentMarker); idx >= 0 {
			line = line[:idx]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != fieldsPerLine {
			return nil, fmt.Errorf("%w: trace: line %d: want %d fields, got %d",
				core.ErrInvalidInput, lineNo, fieldsPerLine, len(fields))
		}

		var vals [fieldsPerLine]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: trace: line %d field %d: %v", core.ErrInvalidInput, lineNo, i+1, err)
			}
			vals[i] = v
		}

		out = append(out, Sample{
			Tau:       vals[0],
			Up:        vals[1],
			Down:      vals[2],
			SigmaUp:   vals[3],
			SigmaDown: vals[4],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: read: %w", err)
	}

	return out, nil
}

// ReadFile reads a count trace from path.
func ReadFile(path string) (CountTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: trace: %w", core.ErrInvalidInput, err)
	}
	defer f.Close()

	return Read(f)
}

// Write emits t in the text format understood by [Read]. Values use the
// shortest representation that parses back to the same float64.
func Write(w io.Writer, t CountTrace) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, header); err != nil {
		return fmt.Errorf("trace: write: %w", err)
	}

	for _, s := range t {
		line := strings.Join([]string{
			formatFloat(s.Tau),
			formatFloat(s.Up),
			formatFloat(s.Down),
			formatFloat(s.SigmaUp),
			formatFloat(s.SigmaDown),
		}, "\t")
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return fmt.Errorf("trace: write: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("trace: write: %w", err)
	}
	return nil
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t CountTrace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: %w", err)
	}

	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
