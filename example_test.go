package vecflat_test

import (
	"bytes"
	"fmt"

	"github.com/hupe1980/vecflat"
)

func Example() {
	idx, err := vecflat.New(2)
	if err != nil {
		panic(err)
	}

	_, _ = idx.Add([][]float32{{0, 0}, {1, 0}, {0, 1}})
	_, _ = idx.MarkDeleted(1)
	labels, _ := idx.Add([][]float32{{5, 5}})
	fmt.Println("new label:", labels[0])

	results, _ := idx.Search([][]float32{{0, 0}}, 2)
	for _, n := range results[0] {
		fmt.Println(n.Label, n.Distance)
	}
	// Output:
	// new label: 3
	// 0 0
	// 2 1
}

func ExampleIndex_RangeSearch() {
	idx, _ := vecflat.New(1, vecflat.WithMetric(vecflat.MetricL1))
	_, _ = idx.Add([][]float32{{0}, {2}, {5}, {-1}})

	results, _ := idx.RangeSearch([][]float32{{0}}, 2.5)
	for _, n := range results[0] {
		fmt.Println(n.Label, n.Distance)
	}
	// Output:
	// 0 0
	// 3 1
	// 1 2
}

func ExampleLoad() {
	idx, _ := vecflat.New(3)
	_, _ = idx.Add([][]float32{{1, 2, 3}, {4, 5, 6}})
	_, _ = idx.MarkDeleted(0)

	var buf bytes.Buffer
	if _, err := idx.Save(&buf); err != nil {
		panic(err)
	}

	restored, err := vecflat.Load(&buf)
	if err != nil {
		panic(err)
	}
	st := restored.Stats()
	fmt.Println(st.LiveCount, st.FreeCount, st.NextLabel)
	// Output:
	// 1 1 2
}
