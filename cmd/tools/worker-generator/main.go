// cmd/tools/worker-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"repairer-search/pkg/registry"
)

func main() {
	activity := flag.String("activity", "", "Activity ID from registry (e.g. search-nearby-repairers)")
	outputDir := flag.String("output", "./internal/workers/", "Root directory for generated workers")
	registryPath := flag.String("registry", "configs/activities.json", "Path to the activity registry JSON file")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Error: -activity is required")
		flag.Usage()
		os.Exit(1)
	}

	reg, err := registry.LoadOrDefault(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}
	a, ok := reg.Find(*activity)
	if !ok {
		fmt.Printf("Error: activity %s not found in registry\n", *activity)
		os.Exit(1)
	}

	dir, files, err := Generate(*a, *outputDir, *force)
	if err != nil {
		fmt.Printf("Error generating worker: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d files in %s\n", len(files), dir)
	for _, f := range files {
		fmt.Printf("  %s\n", f)
	}
}
