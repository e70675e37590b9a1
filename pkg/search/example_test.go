package search_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/search"
)

func ExampleSearch() {
	c, _ := circuit.ParseQASMString(`
qreg q[3];
h q[2];
cx q[1],q[2];
tdg q[2];
cx q[0],q[1];
`)
	report, err := search.Search(context.Background(), search.Request{
		Circuit: c,
		Device:  device.Line(3),
	})
	if err != nil {
		panic(err)
	}
	for _, r := range report.Results {
		fmt.Printf("budget=%d depth=%d swaps=%d\n", r.Budget, r.D, r.SwapCount)
	}
	// Output: budget=0 depth=4 swaps=0
}
