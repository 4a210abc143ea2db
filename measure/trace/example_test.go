package trace_test

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-nvdepth/measure/trace"
)

func ExampleNormalize() {
	input := `# tau c_up c_down s_up s_down
1e-07 1100 900 30 30
2e-07 1000 1000 30 30
3e-07 900 1100 30 30 # beyond tau_max
`
	t, err := trace.Read(strings.NewReader(input))
	if err != nil {
		panic(err)
	}

	n, err := trace.Normalize(t, 0.2)
	if err != nil {
		panic(err)
	}

	for i := range n.Tau {
		fmt.Printf("%.0f ns %.2f\n", n.Tau[i]*1e9, n.Y[i])
	}
	// Output:
	// 100 ns -0.90
	// 200 ns 0.00
}
