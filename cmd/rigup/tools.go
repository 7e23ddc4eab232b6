package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mhalloway/rigup/internal/platform"
)

// runTools prints the resolved catalog for the current machine: what would
// be downloaded from where, and where it would land.
func runTools(args []string) error {
	var manifestPath string
	fs := flag.NewFlagSet("tools", flag.ContinueOnError)
	fs.StringVar(&manifestPath, "manifest", "", "Lua manifest overlay file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	info, err := platform.NewDetector().Detect(context.Background())
	if err != nil {
		return fmt.Errorf("resolve architecture: %w", err)
	}

	m, err := loadManifest(info, manifestPath)
	if err != nil {
		return err
	}

	fmt.Printf("platform: %s/%s (raw %s)\n\n", info.OS, info.Arch, info.RawArch)
	for i := range m.Tools {
		tool := &m.Tools[i]
		fmt.Printf("%s (%s)\n", tool.Name, tool.Kind)
		if tool.Version != "" {
			fmt.Printf("  version: %s\n", tool.Version)
		}
		fmt.Printf("  url:     %s\n", tool.RenderURL(info.Arch))
		if tool.Target != "" {
			fmt.Printf("  target:  %s\n", tool.Target)
		}
		for _, link := range tool.Links {
			fmt.Printf("  link:    %s\n", link)
		}
		for _, line := range tool.ProfileLines {
			fmt.Printf("  profile: %s <- %q\n", line.File, line.Line)
		}
	}
	return nil
}

// runArch prints the raw machine identifier and its resolved tag.
func runArch(args []string) error {
	info, err := platform.NewDetector().Detect(context.Background())
	if err != nil {
		return fmt.Errorf("resolve architecture: %w", err)
	}

	fmt.Fprintf(os.Stdout, "raw:      %s\n", info.RawArch)
	fmt.Fprintf(os.Stdout, "resolved: %s\n", info.Arch)
	if !info.Arch.Canonical() {
		fmt.Fprintln(os.Stderr, "warning: no rewrite rule recognized this identifier; download URLs will use it as-is")
	}
	return nil
}
