// Zenda CLI - generates, describes, and installs bridge extensions
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/zenda/manifest"
	"github.com/chazu/zenda/zend"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	showVersion := flag.Bool("version", false, "Print the bridge version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: zenda [options] <command> [command options]\n\n")
		fmt.Fprintf(os.Stderr, "Builds the glue between an annotated Go package and the script engine.\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  gen       Scan the package and write the glue source and description artifact\n")
		fmt.Fprintf(os.Stderr, "  stubs     Write PHP stub declarations from the description artifact\n")
		fmt.Fprintf(os.Stderr, "  install   Copy the built artifact into the host's extension directory\n")
		fmt.Fprintf(os.Stderr, "  remove    Undo install: delete the artifact, comment out the ini line\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  zenda gen                  # regenerate glue for the nearest zenda.toml\n")
		fmt.Fprintf(os.Stderr, "  zenda stubs -print         # print stubs instead of writing the file\n")
		fmt.Fprintf(os.Stderr, "  zenda install -yes         # install without the confirmation prompt\n")
		fmt.Fprintf(os.Stderr, "\nEvery command reads its configuration from zenda.toml, searched for\n")
		fmt.Fprintf(os.Stderr, "upward from the current directory.\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	if *showVersion {
		fmt.Printf("zenda %s (engine API %d)\n", zend.Version, zend.EngineAPI)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch args[0] {
	case "gen":
		handleGenCommand(args[1:], *verbose)
	case "stubs":
		handleStubsCommand(args[1:], *verbose)
	case "install":
		handleInstallCommand(args[1:], *verbose)
	case "remove":
		handleRemoveCommand(args[1:], *verbose)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}

// loadManifest finds the nearest zenda.toml; every command needs one.
func loadManifest() *manifest.Manifest {
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		fmt.Fprintln(os.Stderr, "Error: no zenda.toml found")
		fmt.Fprintln(os.Stderr, "Run zenda from inside an extension project, or create a zenda.toml with a [project] name")
		os.Exit(1)
	}
	return m
}
