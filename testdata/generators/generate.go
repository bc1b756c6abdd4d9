package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
)

// Generator represents a data generator command
type Generator struct {
	Name        string
	Command     string
	Description string
}

var generators = []Generator{
	{
		Name:        "pairs",
		Command:     "pair_generator",
		Description: "Generate matched invoice/purchase order JSON files",
	},
	{
		Name:        "scenarios",
		Command:     "scenario_generator",
		Description: "Generate specific test scenario datasets",
	},
}

func main() {
	var (
		generator = flag.String("generator", "", "Generator to run: pairs, scenarios, or 'all'")
		list      = flag.Bool("list", false, "List available generators")
		outputDir = flag.String("output-dir", "../generated", "Output directory for generated files")
		help      = flag.Bool("help", false, "Show help for specific generator")
	)
	flag.Parse()

	if *list {
		listGenerators()
		return
	}

	if *generator == "" {
		fmt.Println("Test Data Generator CLI")
		fmt.Println("======================")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  go run generate.go -generator=<name> [options]")
		fmt.Println()
		fmt.Println("Available generators:")
		for _, gen := range generators {
			fmt.Printf("  %-12s %s\n", gen.Name, gen.Description)
		}
		fmt.Println()
		fmt.Println("Use -list to see all generators")
		fmt.Println("Use -help -generator=<name> to see generator-specific options")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  go run generate.go -generator=pairs -count=200 -match-ratio=0.8")
		fmt.Println("  go run generate.go -generator=scenarios -scenario=all")
		fmt.Println("  go run generate.go -generator=all")
		return
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	if *help {
		showGeneratorHelp(*generator)
		return
	}

	if *generator == "all" {
		generateAll(*outputDir)
		return
	}

	// Find and run specific generator
	for _, gen := range generators {
		if gen.Name == *generator {
			runGenerator(gen, *outputDir, flag.Args())
			return
		}
	}

	log.Fatalf("Unknown generator: %s", *generator)
}

func listGenerators() {
	fmt.Println("Available Test Data Generators:")
	fmt.Println("===============================")
	fmt.Println()

	for _, gen := range generators {
		fmt.Printf("Name: %s\n", gen.Name)
		fmt.Printf("Description: %s\n", gen.Description)
		fmt.Printf("Command: %s\n", gen.Command)
		fmt.Println()
	}
}

func showGeneratorHelp(generatorName string) {
	for _, gen := range generators {
		if gen.Name == generatorName {
			fmt.Printf("Help for %s generator:\n", generatorName)
			fmt.Printf("======================\n\n")

			cmd := exec.Command("go", "run", gen.Command+".go", "-help")
			output, err := cmd.CombinedOutput()
			if err != nil {
				log.Printf("Failed to get help for %s: %v", generatorName, err)
				return
			}

			fmt.Println(string(output))
			return
		}
	}

	log.Fatalf("Unknown generator: %s", generatorName)
}

func generateAll(outputDir string) {
	for _, gen := range generators {
		runGenerator(gen, outputDir, nil)
	}
}

func runGenerator(gen Generator, outputDir string, args []string) {
	fmt.Printf("Running %s generator...\n", gen.Name)

	cmdArgs := []string{"run", gen.Command + ".go", "-output-dir=" + outputDir}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.Command("go", cmdArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		log.Fatalf("Failed to run %s generator: %v", gen.Name, err)
	}

	fmt.Printf("✓ %s generator completed successfully\n", gen.Name)
}
