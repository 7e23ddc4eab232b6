package main

import (
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	// Handle subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("rigup %s\n", Version)
			return
		case "provision":
			code, err := runProvision(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			os.Exit(code)
		case "tools":
			if err := runTools(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "arch":
			if err := runArch(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Default: show help
	fmt.Println("rigup - cloud-native workstation provisioner")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  rigup --version              Show version information")
	fmt.Println("  rigup provision [options]    Install the tool catalog")
	fmt.Println("  rigup tools [options]        Show the resolved catalog for this machine")
	fmt.Println("  rigup arch                   Show the detected architecture")
	fmt.Println()
	fmt.Println("Provision options:")
	fmt.Println("  --manifest FILE   Lua overlay: pin versions, skip tools, add aliases")
	fmt.Println("  --parallel        Provision tools concurrently")
	fmt.Println("  --raw-append      Append profile lines without duplicate checks")
	fmt.Println("  --dry-run         Show planned steps without changing anything")
	fmt.Println("  --no-sudo         Install without privilege escalation")
	fmt.Println("  --report FILE     Write the run report to FILE")
	fmt.Println("  --format FORMAT   Report format: json or yaml (default json)")
}
