package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/strutworks/strut/internal/generator"
	"github.com/strutworks/strut/internal/utils"
)

func main() {
	var (
		urlFlag     = flag.String("url", "http://localhost:8080/introspection", "Introspection endpoint to fetch")
		outFlag     = flag.String("out", "requests", "Output directory for generated request files")
		baseFlag    = flag.String("base", "{{baseUrl}}", "Base URL written into generated requests")
		timeoutFlag = flag.Duration("timeout", 30*time.Second, "Timeout for fetching the introspection document")
		verboseFlag = flag.Bool("verbose", false, "Enable verbose output")
		quietFlag   = flag.Bool("quiet", false, "Only show errors and final results")
		helpFlag    = flag.Bool("help", false, "Show help information")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Strut Request File Generator\n")
		fmt.Fprintf(os.Stderr, "Fetches a Strut introspection document and writes one Bruno request file per route.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                             # Fetch from localhost, write to ./requests\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -url http://api.local/introspection -out ./bruno  # Custom endpoint and output\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -base https://api.example.com               # Bake a concrete base URL into requests\n", os.Args[0])
	}

	flag.Parse()

	if *helpFlag {
		flag.Usage()
		os.Exit(0)
	}

	var diagnostics *utils.DiagnosticSystem
	if *quietFlag {
		diagnostics = utils.NewQuietDiagnostics()
	} else if *verboseFlag {
		diagnostics = utils.NewVerboseDiagnostics()
	} else {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}

	diagnostics.Header("Request File Generator")
	diagnostics.Verbose("Endpoint: %s", *urlFlag)
	diagnostics.Verbose("Output directory: %s", *outFlag)

	gen := generator.New()
	gen.BaseURL = *baseFlag

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	diagnostics.Info("Fetching introspection document from %s", *urlFlag)
	routes, err := gen.Fetch(ctx, *urlFlag)
	if err != nil {
		diagnostics.Error("Fetch failed: %v", err)
		os.Exit(1)
	}
	if len(routes) == 0 {
		diagnostics.Warn("Introspection document contains no routes; nothing to do")
		return
	}
	diagnostics.Info("Found %d routes", len(routes))

	written, err := gen.Write(routes, *outFlag)
	if err != nil {
		diagnostics.Error("Generation failed: %v", err)
		os.Exit(1)
	}
	for _, path := range written {
		diagnostics.Written(path)
	}

	diagnostics.Done("Generated %d request files in %s", len(written), *outFlag)
}
