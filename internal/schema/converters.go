package schema

import (
	"fmt"
	"sync"
)

// converterRegistry holds the named converter functions `converter=` tags
// refer to. Registration happens at program start, before any schema for a
// type using the converter is built.
var (
	convMu     sync.RWMutex
	converters = make(map[string]ConverterFunc)
)

// RegisterConverter registers a named converter. Registering an empty name,
// a nil function, or a name that is already taken is a programmer error and
// panics, matching the fail-early contract of schema construction.
func RegisterConverter(name string, fn ConverterFunc) {
	if name == "" {
		panic("schema: converter name cannot be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("schema: converter %q is nil", name))
	}

	convMu.Lock()
	defer convMu.Unlock()
	if _, exists := converters[name]; exists {
		panic(fmt.Sprintf("schema: converter %q registered twice", name))
	}
	converters[name] = fn
}

// lookupConverter resolves a converter name at schema build time.
func lookupConverter(name string) (ConverterFunc, bool) {
	convMu.RLock()
	defer convMu.RUnlock()
	fn, ok := converters[name]
	return fn, ok
}
