// Package main runs the scripted playthroughs and exits non-zero when one of
// them ends in an unexpected status.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/logger"
	"github.com/MRamiBalles/EscapeMitochondrion/server/test"
)

func main() {
	seed := flag.Int64("seed", 1, "Seed for the random-deck playthrough")
	verbose := flag.Bool("v", false, "Print each run's journal")
	flag.Parse()

	fmt.Println("🧬 ESCAPE THE MITOCHONDRION - PLAYTHROUGHS")
	fmt.Println(strings.Repeat("=", 60))

	runner := &test.Runner{Seed: *seed}
	if *verbose {
		runner.Logger = logger.NewLogger()
	}

	scenarios := append([]test.Scenario{}, test.Scenarios...)
	scenarios = append(scenarios, test.RandomScenario())

	passed, failed := 0, 0
	for _, sc := range scenarios {
		res, err := runner.Run(sc)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", sc.Name, err)
			failed++
			continue
		}
		fmt.Println(res.Summary())
		if *verbose {
			fmt.Println(res.Transcript())
			fmt.Println(strings.Repeat("-", 60))
		}
		if res.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   ✅ Passed: %d\n", passed)
	fmt.Printf("   ❌ Failed: %d\n", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
