package main

import (
	"bufio"
	"debug/elf"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/chazu/zenda/manifest"
)

// handleInstallCommand processes the `zenda install` subcommand: copy the
// built artifact into the host's extension directory and, when the manifest
// names a php.ini, add an extension= line to it. Both steps confirm before
// mutating the host installation.
//
//	zenda install         # prompt, then install
//	zenda install -yes    # no prompt
func handleInstallCommand(args []string, verbose bool) {
	assumeYes := false
	for _, a := range args {
		switch a {
		case "-yes", "-y":
			assumeYes = true
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown install option %q\n", a)
			os.Exit(2)
		}
	}

	m := loadManifest()

	artifact := m.ArtifactPath()
	if _, err := os.Stat(artifact); err != nil {
		fmt.Fprintf(os.Stderr, "Error: built artifact %s not found\n", artifact)
		fmt.Fprintln(os.Stderr, "Build it first: go build -buildmode=plugin -o "+m.Extension.Artifact)
		os.Exit(1)
	}
	checkEntrypoint(artifact, verbose)

	extDir := extensionDir(m)
	dest := filepath.Join(extDir, m.Extension.Artifact)

	if !confirm(fmt.Sprintf("Install %s into %s?", m.Extension.Artifact, extDir), assumeYes) {
		fmt.Fprintln(os.Stderr, "Aborted")
		os.Exit(1)
	}
	if err := copyFile(artifact, dest); err != nil {
		fmt.Fprintf(os.Stderr, "Error installing artifact: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Installed %s\n", dest)

	if m.Php.Ini == "" {
		return
	}
	if !confirm(fmt.Sprintf("Add extension=%s to %s?", m.Extension.Artifact, m.Php.Ini), assumeYes) {
		fmt.Fprintln(os.Stderr, "Skipped ini edit")
		return
	}
	if err := addIniLine(m.Php.Ini, m.Extension.Artifact, verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error editing %s: %v\n", m.Php.Ini, err)
		os.Exit(1)
	}
}

// checkEntrypoint verifies the artifact is a shared object exporting the
// well-known module entrypoint. An unreadable symbol table only warns; a
// missing entrypoint is fatal, the host would refuse the load anyway.
func checkEntrypoint(path string, verbose bool) {
	f, err := elf.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s is not a shared library: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	syms, err := f.DynamicSymbols()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot read symbols of %s: %v\n", path, err)
		return
	}
	for _, s := range syms {
		if s.Name == "GetModule" || strings.HasSuffix(s.Name, ".GetModule") {
			if verbose {
				fmt.Printf("Found entrypoint %s\n", s.Name)
			}
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Error: %s does not export GetModule\n", path)
	os.Exit(1)
}

// extensionDir resolves where artifacts install to: the manifest override,
// or the host's own answer via php-config.
func extensionDir(m *manifest.Manifest) string {
	if m.Php.ExtensionDir != "" {
		return m.Php.ExtensionDir
	}
	out, err := exec.Command(m.Php.Config, "--extension-dir").Output()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running %s --extension-dir: %v\n", m.Php.Config, err)
		fmt.Fprintln(os.Stderr, "Set php.extension-dir in zenda.toml to skip the probe")
		os.Exit(1)
	}
	return strings.TrimSpace(string(out))
}

// confirm asks on the terminal before a mutating step. Without a terminal
// the answer is no unless -yes was given.
func confirm(prompt string, assumeYes bool) bool {
	if assumeYes {
		return true
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: no terminal to confirm on; pass -yes to proceed")
		return false
	}
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// backupIni copies the ini aside before an edit and returns the backup path.
func backupIni(iniPath string) (string, error) {
	backup := fmt.Sprintf("%s.zenda-%s.bak", iniPath, uuid.NewString()[:8])
	if err := copyFile(iniPath, backup); err != nil {
		return "", err
	}
	return backup, nil
}

// addIniLine appends extension=<artifact> unless an active line already
// loads it.
func addIniLine(iniPath, artifact string, verbose bool) error {
	data, err := os.ReadFile(iniPath)
	if err != nil {
		return err
	}
	needle := "extension=" + artifact
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == needle {
			if verbose {
				fmt.Printf("%s already loads %s\n", iniPath, artifact)
			}
			return nil
		}
	}

	backup, err := backupIni(iniPath)
	if err != nil {
		return fmt.Errorf("backing up ini: %w", err)
	}
	if verbose {
		fmt.Printf("Backed up ini to %s\n", backup)
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += needle + "\n"
	if err := os.WriteFile(iniPath, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Printf("Added %s to %s\n", needle, iniPath)
	return nil
}
