package main

import (
	"fmt"
	"os"

	"github.com/chazu/zenda/describe"
	"github.com/chazu/zenda/phpgen"
)

// handleStubsCommand processes the `zenda stubs` subcommand. It prefers the
// description artifact a previous gen wrote; without one it rescans the
// package.
//
//	zenda stubs              # write <name>.stubs.php
//	zenda stubs -o out.php   # custom output
//	zenda stubs -print       # print to stdout instead
func handleStubsCommand(args []string, verbose bool) {
	var outPath string
	printOnly := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -o requires an output path")
				os.Exit(2)
			}
			outPath = args[i+1]
			i++
		case "-print":
			printOnly = true
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown stubs option %q\n", args[i])
			os.Exit(2)
		}
	}

	m := loadManifest()

	var d *describe.Description
	if _, err := os.Stat(m.DescriptionPath()); err == nil {
		d, err = describe.ReadFile(m.DescriptionPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading description artifact: %v\n", err)
			os.Exit(1)
		}
		if verbose {
			fmt.Printf("Read %s\n", m.DescriptionPath())
		}
	} else {
		ext := scanExtension(m, verbose)
		tree := phpgen.Describe(ext, m.Project.Namespace)
		d = &tree
	}

	stub := d.Stub()
	if printOnly {
		fmt.Print(stub)
		return
	}

	if outPath == "" {
		outPath = m.StubsPath()
	}
	if err := os.WriteFile(outPath, []byte(stub), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", outPath)
}
