// Package module defines the minimal module contract and a ports registry
package module

import (
	"fmt"
	"sync"
)

// Module is the minimal contract every service module satisfies
type Module interface {
	Name() string
	Ports() any
}

var (
	mu       sync.RWMutex
	registry = map[string]any{}
)

// Register records a module's ports under its name; last write wins
func Register(name string, ports any) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ports
}

// PortsOf returns the registered ports for name, typed
func PortsOf[T any](name string) (T, bool) {
	mu.RLock()
	defer mu.RUnlock()
	var zero T
	v, ok := registry[name]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// MustPortsOf extracts typed ports from a module or panics on miswiring
func MustPortsOf[T any](m Module) T {
	t, ok := m.Ports().(T)
	if !ok {
		panic(fmt.Sprintf("module %q: ports are %T, not the requested type", m.Name(), m.Ports()))
	}
	return t
}
