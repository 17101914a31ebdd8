// feather-memory-tester drives an interpreter through repeated eval/proc/
// foreign-object churn and watches heap growth across iterations, to catch
// handle or registry leaks that a single-shot test run wouldn't surface.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/feather-lang/feather"
)

type memStats struct {
	alloc      uint64 // bytes allocated and still in use
	totalAlloc uint64 // bytes allocated (even if freed)
	sys        uint64 // bytes obtained from system
	numGC      uint32 // number of completed GC cycles
}

func getMemStats() memStats {
	runtime.GC()
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return memStats{
		alloc:      m.Alloc,
		totalAlloc: m.TotalAlloc,
		sys:        m.Sys,
		numGC:      m.NumGC,
	}
}

func (m memStats) String() string {
	return fmt.Sprintf("Alloc: %6d KB, TotalAlloc: %6d KB, Sys: %6d KB, NumGC: %d",
		m.alloc/1024, m.totalAlloc/1024, m.sys/1024, m.numGC)
}

// counter is a minimal foreign type, registered fresh per run so the test
// also exercises ForeignRegistry churn (new/dispose) on top of plain Obj
// allocation.
type counter struct{ n int }

func registerCounterType(interp *feather.Interp) error {
	return feather.RegisterType[*counter](interp, "Counter", feather.TypeDef[*counter]{
		New: func() *counter { return &counter{} },
		Methods: map[string]any{
			"incr": func(c *counter) int { c.n++; return c.n },
		},
	})
}

func main() {
	var iterations int
	var reportInterval int
	var maxBytesPerIter float64

	cmd := &cobra.Command{
		Use:   "feather-memory-tester",
		Short: "Stress-test an interpreter for unbounded per-iteration memory growth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(iterations, reportInterval, maxBytesPerIter)
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 10000, "number of stress-test iterations")
	cmd.Flags().IntVar(&reportInterval, "report-interval", 1000, "print a memory snapshot every N iterations")
	cmd.Flags().Float64Var(&maxBytesPerIter, "max-bytes-per-iter", 50.0, "fail if growth exceeds this many bytes/iteration")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(iterations, reportInterval int, maxBytesPerIter float64) error {
	interp := feather.New()
	defer interp.Close()

	if err := registerCounterType(interp); err != nil {
		return fmt.Errorf("registering Counter type: %w", err)
	}

	startMem := getMemStats()
	fmt.Println("Start:", startMem)

	// Each pass builds a list, grows it, defines and tears down a proc, opens
	// and closes a namespace, and creates then discards a foreign object:
	// the set of allocation sites most likely to leak a handle.
	script := `
		set x [list a b c d e f g h i j]
		lappend x k l m n o p q r s t
		proc tmp {} { return [expr {1 + 2}] }
		tmp
		rename tmp {}
		namespace eval scratch { variable v 1 }
		namespace delete scratch
		set c [Counter new]
		$c incr
	`

	for i := 0; i < iterations; i++ {
		if _, err := interp.Eval(script); err != nil {
			return fmt.Errorf("eval error at iteration %d: %w", i, err)
		}

		if reportInterval > 0 && i%reportInterval == 0 && i > 0 {
			fmt.Printf("Iteration %5d: %s\n", i, getMemStats())
		}
	}

	endMem := getMemStats()
	fmt.Println("End:  ", endMem)

	allocGrowth := int64(endMem.alloc) - int64(startMem.alloc)
	allocGrowthKB := allocGrowth / 1024
	bytesPerIteration := float64(allocGrowth) / float64(iterations)

	fmt.Printf("\nMemory growth: %d KB (%.2f bytes/iteration)\n", allocGrowthKB, bytesPerIteration)

	if bytesPerIteration > maxBytesPerIter {
		fmt.Fprintf(os.Stderr, "FAIL: memory leak detected\n")
		fmt.Fprintf(os.Stderr, "  Start Alloc:        %d KB\n", startMem.alloc/1024)
		fmt.Fprintf(os.Stderr, "  End Alloc:          %d KB\n", endMem.alloc/1024)
		fmt.Fprintf(os.Stderr, "  Growth:             %d KB\n", allocGrowthKB)
		fmt.Fprintf(os.Stderr, "  Bytes/iteration:    %.2f (threshold: %.2f)\n", bytesPerIteration, maxBytesPerIter)
		return fmt.Errorf("memory growing unbounded across iterations")
	}

	fmt.Println("PASS: no memory leaks detected")
	return nil
}
