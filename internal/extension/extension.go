// Package extension implements the dynamic extension-command bridge: a
// compiled Go plugin loaded at runtime, exporting one init symbol that
// registers new commands and reads/writes interpreter variables. It uses
// the standard library's plugin package, the idiomatic stdlib mechanism
// for loading compiled Go code at runtime.
package extension

import (
	"plugin"

	"github.com/relang/bcl/internal/bclerr"
)

// InitFunc is the symbol every extension .so must export, named
// BclExtensionInit. It receives an API bound to the loading interpreter
// and returns 0 on success.
type InitFunc func(api *API) int

// Host is the callback surface an extension needs from the interpreter:
// registering commands and reading/writing variables.
type Host interface {
	RegisterCommand(name string, fn func(args []string) (string, error))
	GetVar(name string) (string, bool)
	SetVar(name, value string)
}

// API is the stable struct passed to BclExtensionInit. Its function
// pointers proxy back into the host interpreter.
type API struct {
	RegisterCommand func(name string, fn func(args []string) (string, error))
	GetVar          func(name string) (string, bool)
	SetVar          func(name, value string)
}

func newAPI(h Host) *API {
	return &API{
		RegisterCommand: h.RegisterCommand,
		GetVar:          h.GetVar,
		SetVar:          h.SetVar,
	}
}

// Registry tracks loaded extension paths in load order so teardown can
// run in reverse order.
type Registry struct {
	loaded []string
}

// Load opens the plugin at path, looks up BclExtensionInit, and invokes
// it. Loading the same path twice is rejected.
func (r *Registry) Load(path string, host Host) error {
	for _, p := range r.loaded {
		if p == path {
			return bclerr.New(bclerr.Runtime, "extension %q already loaded", path)
		}
	}

	p, err := plugin.Open(path)
	if err != nil {
		return bclerr.New(bclerr.IO, "loading extension %q: %v", path, err)
	}
	sym, err := p.Lookup("BclExtensionInit")
	if err != nil {
		return bclerr.New(bclerr.IO, "extension %q has no BclExtensionInit symbol: %v", path, err)
	}
	init, ok := sym.(func(*API) int)
	if !ok {
		return bclerr.New(bclerr.IO, "extension %q: BclExtensionInit has the wrong signature", path)
	}

	if rc := init(newAPI(host)); rc != 0 {
		return bclerr.New(bclerr.Runtime, "extension %q init returned %d", path, rc)
	}
	r.loaded = append(r.loaded, path)
	return nil
}

// Loaded reports the paths loaded so far, in load order.
func (r *Registry) Loaded() []string {
	out := make([]string, len(r.loaded))
	copy(out, r.loaded)
	return out
}

// TeardownOrder returns loaded paths in reverse load order, the order the
// bridge tears extensions down at interpreter exit.
func (r *Registry) TeardownOrder() []string {
	out := make([]string, len(r.loaded))
	for i, p := range r.loaded {
		out[len(r.loaded)-1-i] = p
	}
	return out
}
