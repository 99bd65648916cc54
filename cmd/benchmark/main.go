// ABOUTME: Command-line runner for the session churn benchmarks
// ABOUTME: Executes churn scenarios and outputs JSON results

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/harper/tierworks/benchmarks/churn"
	"github.com/harper/tierworks/internal/logging"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run specific scenario (small, drag, large). If empty, runs all scenarios.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	persist := flag.Bool("persist", false, "Write snapshots to an in-memory store while churning")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := logging.New("debug")
		if err != nil {
			log.Fatalf("Failed to create logger: %v", err)
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()

	fmt.Println("========================================")
	fmt.Println("Tierworks Churn Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner := churn.NewRunner(*persist, logger)

	var results []churn.Result
	if *scenarioID == "" {
		fmt.Println("Running all churn scenarios...")
		fmt.Println()

		var err error
		results, err = runner.RunAll()
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
	} else {
		scenario, err := churn.ScenarioByID(*scenarioID)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("Running scenario: %s\n\n", scenario.Name)

		result, err := runner.Run(scenario)
		if err != nil {
			log.Fatalf("Scenario failed: %v", err)
		}
		results = []churn.Result{result}
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	failed := 0
	for _, r := range results {
		fmt.Printf("\n%s: %s\n", r.ScenarioID, r.Name)
		fmt.Printf("  Items: %d  Steps: %d  No-ops: %d\n", r.Items, r.Steps, r.NoOps)
		fmt.Printf("  Ops: %v\n", r.Ops)
		if *persist {
			fmt.Printf("  Snapshots written: %d\n", r.Snapshots)
		}
		fmt.Printf("  Throughput: %.0f ops/sec (%.1f ms)\n", r.OpsPerSec, r.DurationMS)
		fmt.Printf("  Status: %s\n", r.Status)
		if r.Violation != "" {
			fmt.Printf("  Violation: %s\n", r.Violation)
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Scenarios: %d\n", len(results))
	fmt.Printf("Passed: %d\n", len(results)-failed)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Println("========================================")

	if err := churn.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
