package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/zenda/describe"
	"github.com/chazu/zenda/manifest"
	"github.com/chazu/zenda/phpgen"
	"github.com/chazu/zenda/pkg/codegen"
)

// handleGenCommand processes the `zenda gen` subcommand: scan the annotated
// package, validate the model, write the glue source next to it, and write
// the description artifact the stubs command reads.
func handleGenCommand(args []string, verbose bool) {
	skipValidation := false
	for _, a := range args {
		switch a {
		case "-skip-validation":
			skipValidation = true
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown gen option %q\n", a)
			os.Exit(2)
		}
	}

	m := loadManifest()
	ext := scanExtension(m, verbose)

	res, err := codegen.Generate(ext, codegen.Options{SkipValidation: skipValidation})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating glue: %v\n", err)
		os.Exit(1)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	gluePath := filepath.Join(m.PackageDir(), codegen.GlueFile)
	if err := os.WriteFile(gluePath, []byte(res.Code), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", gluePath, err)
		os.Exit(1)
	}
	if verbose {
		fmt.Printf("Wrote %s\n", gluePath)
	}

	d := phpgen.Describe(ext, m.Project.Namespace)
	if err := describe.WriteFile(m.DescriptionPath(), &d); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing description artifact: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		fmt.Printf("Wrote %s\n", m.DescriptionPath())
	}

	fmt.Printf("Generated glue for %s: %d functions, %d classes, %d enums, %d constants\n",
		ext.Name, len(ext.Functions), len(ext.Classes), len(ext.Enums), len(ext.Constants))
}

// scanExtension loads and validates the extension model for a manifest.
func scanExtension(m *manifest.Manifest, verbose bool) *phpgen.Extension {
	if verbose {
		fmt.Printf("Scanning %s\n", m.PackageDir())
	}
	ext, err := phpgen.Load(phpgen.Options{
		ModuleName: m.Project.Name,
		Version:    m.Project.Version,
		Dir:        m.PackageDir(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", m.PackageDir(), err)
		os.Exit(1)
	}
	if err := phpgen.Validate(ext); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return ext
}
