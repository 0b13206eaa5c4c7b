package zend

import (
	"fmt"
	"runtime"
	"sort"
)

// Version is the bridge library release. The generation pipeline stamps it
// into description artifacts.
const Version = "0.1.0"

// EngineAPI is the module API generation. Entries built against a different
// generation are refused at registration.
const EngineAPI = 20240924

// CurrentBuildID returns the build identifier module entries must carry to
// register with this engine.
func CurrentBuildID() string {
	return fmt.Sprintf("API%d,%s", EngineAPI, runtime.Version())
}

// ModuleInfo collects key/value rows for a module's info table.
type ModuleInfo struct {
	rows [][2]string
}

// Add appends one row.
func (mi *ModuleInfo) Add(key, value string) {
	mi.rows = append(mi.rows, [2]string{key, value})
}

// Rows returns the collected rows in insertion order.
func (mi *ModuleInfo) Rows() [][2]string { return mi.rows }

// ModuleStartup registers a module's functions, constants, and classes with
// the executor.
type ModuleStartup func() error

// ModuleEntry is what a built extension hands the engine: identity, the
// build identifier, the function table, and lifecycle hooks.
type ModuleEntry struct {
	Name    string
	Version string
	BuildID string

	Functions []*Function

	startup         ModuleStartup
	Shutdown        func() error
	RequestStartup  func() error
	RequestShutdown func() error
	PostDeactivate  func() error
	Info            func(*ModuleInfo)
}

// InfoTable returns the module's info rows: identity first, then whatever
// the module's info hook adds.
func (m *ModuleEntry) InfoTable() [][2]string {
	mi := &ModuleInfo{}
	mi.Add("Module", m.Name)
	mi.Add("Version", m.Version)
	if m.Info != nil {
		m.Info(mi)
	}
	return mi.Rows()
}

// RegisterModule checks the entry's build identifier, installs it in the
// module table, and runs its startup. A mismatched build ID refuses the
// module before anything registers.
func RegisterModule(entry *ModuleEntry) error {
	if entry.BuildID != CurrentBuildID() {
		return fmt.Errorf("zend: register module %s: build ID mismatch: module %q, engine %q",
			entry.Name, entry.BuildID, CurrentBuildID())
	}
	if err := Executor().registerModule(entry); err != nil {
		return fmt.Errorf("zend: %w", err)
	}
	if entry.startup != nil {
		if err := entry.startup(); err != nil {
			return fmt.Errorf("zend: module %s startup: %w", entry.Name, err)
		}
	}
	log.Infof("registered module %s %s", entry.Name, entry.Version)
	return nil
}

// Modules returns the registered modules sorted by name, so host loops run
// in a stable order.
func (eg *ExecutorGlobals) Modules() []*ModuleEntry {
	eg.mu.RLock()
	defer eg.mu.RUnlock()
	out := make([]*ModuleEntry, 0, len(eg.moduleTable))
	for _, m := range eg.moduleTable {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StartRequest runs every module's request startup hook.
func StartRequest() error {
	for _, m := range Executor().Modules() {
		if m.RequestStartup == nil {
			continue
		}
		if err := m.RequestStartup(); err != nil {
			return fmt.Errorf("zend: module %s request startup: %w", m.Name, err)
		}
	}
	return nil
}

// EndRequest runs request shutdown then post-deactivate hooks and drops any
// exception still pending from the request.
func EndRequest() error {
	var firstErr error
	for _, m := range Executor().Modules() {
		if m.RequestShutdown == nil {
			continue
		}
		if err := m.RequestShutdown(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("zend: module %s request shutdown: %w", m.Name, err)
		}
	}
	for _, m := range Executor().Modules() {
		if m.PostDeactivate == nil {
			continue
		}
		if err := m.PostDeactivate(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("zend: module %s post deactivate: %w", m.Name, err)
		}
	}
	if obj := Executor().TakeException(); obj != nil {
		obj.Release()
	}
	return firstErr
}

// ShutdownModules runs every module's shutdown hook in reverse name order.
func ShutdownModules() error {
	mods := Executor().Modules()
	var firstErr error
	for i := len(mods) - 1; i >= 0; i-- {
		if mods[i].Shutdown == nil {
			continue
		}
		if err := mods[i].Shutdown(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("zend: module %s shutdown: %w", mods[i].Name, err)
		}
	}
	return firstErr
}
