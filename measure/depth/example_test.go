package depth_test

import (
	"fmt"

	"github.com/cwbudde/algo-nvdepth/measure/depth"
)

func ExampleSample_Depth() {
	s := depth.Protons()
	fmt.Printf("%.2f nm\n", s.Depth(1.206e-6)*1e9)
	// Output:
	// 3.00 nm
}
