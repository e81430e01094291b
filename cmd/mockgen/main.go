package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"flowlens/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	out := flag.String("out", "./snapshot.json", "Output snapshot file")
	count := flag.Int("count", 200, "Number of issues to generate")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Now:          time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *out)

	issues := engine.Generate(cfg)
	if err := engine.Save(*out, issues); err != nil {
		fmt.Printf("Failed to save snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
