package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/microbind/microbind/reactive"
)

var (
	scopeCounts   = []int{1, 10, 100, 1_000}
	watcherCounts = []int{1, 10, 100}
	iters         = 100
)

func main() {
	flag.Parse()

	log.Printf("warming up")

	benchmarkPropagation()
	benchmarkCoalescing()
}

func quiet(format string, args ...any) {}

func benchmarkPropagation() {
	tbl := table.NewWriter()
	tbl.SetTitle("Propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, nScopes := range scopeCounts {
		for _, nWatchers := range watcherCounts {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			e := reactive.NewEngine(reactive.WithLogger(quiet))
			sink := 0
			for s := 0; s < nScopes; s++ {
				scope := s
				e.InitScopeValues(scope, map[string]any{"n": 0.0})
				for w := 0; w < nWatchers; w++ {
					e.Watch(scope, func() {
						sink += int(e.GetState(scope)["n"].(float64))
					})
				}
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				e.Batch(func() {
					for s := 0; s < nScopes; s++ {
						e.SetState(s, map[string]any{"n": float64(i + 1)})
					}
				})
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("notify: %d * %d", nScopes, nWatchers),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
}

func benchmarkCoalescing() {
	tbl := table.NewWriter()
	tbl.SetTitle("Coalescing")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"writes/turn", "turns", "passes", "time"})

	for _, writesPerTurn := range []int{1, 10, 100, 1_000} {
		e := reactive.NewEngine(reactive.WithLogger(quiet))
		e.InitScopeValues("bench", map[string]any{"n": 0.0})

		passes := 0
		e.Watch("bench", func() { passes++ })

		turns := iters
		start := time.Now()
		for t := 0; t < turns; t++ {
			e.Batch(func() {
				for w := 0; w < writesPerTurn; w++ {
					e.SetState("bench", map[string]any{"n": float64(t*writesPerTurn + w + 1)})
				}
			})
		}
		elapsed := time.Since(start)

		tbl.AppendRows([]table.Row{
			{
				humanize.Comma(int64(writesPerTurn)),
				humanize.Comma(int64(turns)),
				humanize.Comma(int64(passes)),
				elapsed,
			},
		})
	}

	tbl.Render()
}
