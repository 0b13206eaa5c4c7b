package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// handleRemoveCommand processes the `zenda remove` subcommand: delete the
// installed artifact and comment out its extension= line.
//
//	zenda remove
//	zenda remove -yes
func handleRemoveCommand(args []string, verbose bool) {
	assumeYes := false
	for _, a := range args {
		switch a {
		case "-yes", "-y":
			assumeYes = true
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown remove option %q\n", a)
			os.Exit(2)
		}
	}

	m := loadManifest()
	extDir := extensionDir(m)
	installed := filepath.Join(extDir, m.Extension.Artifact)

	if _, err := os.Stat(installed); err == nil {
		if !confirm(fmt.Sprintf("Delete %s?", installed), assumeYes) {
			fmt.Fprintln(os.Stderr, "Aborted")
			os.Exit(1)
		}
		if err := os.Remove(installed); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing %s: %v\n", installed, err)
			os.Exit(1)
		}
		fmt.Printf("Removed %s\n", installed)
	} else if verbose {
		fmt.Printf("%s is not installed\n", installed)
	}

	if m.Php.Ini == "" {
		return
	}
	if !confirm(fmt.Sprintf("Comment out extension=%s in %s?", m.Extension.Artifact, m.Php.Ini), assumeYes) {
		fmt.Fprintln(os.Stderr, "Skipped ini edit")
		return
	}
	if err := commentIniLine(m.Php.Ini, m.Extension.Artifact, verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error editing %s: %v\n", m.Php.Ini, err)
		os.Exit(1)
	}
}

// commentIniLine disables every active line loading the artifact. The ini
// is backed up first; an ini that never loaded the artifact is untouched.
func commentIniLine(iniPath, artifact string, verbose bool) error {
	data, err := os.ReadFile(iniPath)
	if err != nil {
		return err
	}
	needle := "extension=" + artifact
	lines := strings.Split(string(data), "\n")
	changed := false
	for i, line := range lines {
		if strings.TrimSpace(line) == needle {
			lines[i] = ";" + line
			changed = true
		}
	}
	if !changed {
		if verbose {
			fmt.Printf("%s does not load %s\n", iniPath, artifact)
		}
		return nil
	}

	backup, err := backupIni(iniPath)
	if err != nil {
		return fmt.Errorf("backing up ini: %w", err)
	}
	if verbose {
		fmt.Printf("Backed up ini to %s\n", backup)
	}

	if err := os.WriteFile(iniPath, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}
	fmt.Printf("Commented out %s in %s\n", needle, iniPath)
	return nil
}
