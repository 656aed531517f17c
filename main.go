package main

import (
	"fmt"
	"os"

	"github.com/openshelf/bibliotheca/internal/config"
	"github.com/openshelf/bibliotheca/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	switch os.Args[1] {
	case "seed-demo":
		entrypoint.SeedDemo(config.NewConfig())

	case "version":
		fmt.Printf("bibliotheca %s (%s)\n", Version, Commit)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Bibliotheca - digital library with an in-browser PDF reader")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bibliotheca [serve]    Start the HTTP server (default)")
	fmt.Println("  bibliotheca seed-demo  Load demo catalog data into an empty database")
	fmt.Println("  bibliotheca version    Print version information")
	fmt.Println("  bibliotheca help       Show this help")
	fmt.Println()
	fmt.Println("Configuration is read from environment variables; see README.md.")
}
