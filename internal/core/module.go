package core

import "strings"

// ModuleID is the namespaced identifier of a module, e.g. "channel.messenger".
// The namespace names the role the module plays; the remainder names the
// implementation.
type ModuleID string

// Namespace returns the part before the first dot ("store" for
// "store.sqlite"), or "" when the ID has no namespace.
func (id ModuleID) Namespace() string {
	ns, _, ok := strings.Cut(string(id), ".")
	if !ok {
		return ""
	}
	return ns
}

// Name returns the part after the first dot.
func (id ModuleID) Name() string {
	_, name, _ := strings.Cut(string(id), ".")
	return name
}

func (id ModuleID) valid() bool {
	return id.Namespace() != "" && id.Name() != ""
}

// ModuleInfo describes a registrable module.
type ModuleInfo struct {
	// ID is unique across the registry.
	ID ModuleID

	// New returns a fresh, unconfigured instance.
	New func() Module
}

// Module is the minimal interface every module implements. Optional
// lifecycle hooks are discovered through Configurable, Provisioner,
// Validator, Starter and Stopper.
type Module interface {
	ModuleInfo() ModuleInfo
}
