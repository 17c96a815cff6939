package engine

import (
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// System is per-tick logic run over the world. Systems run once per tick, in registration order.
type System func(w *World) error

type systemEntry struct {
	name string
	fn   System
}

// RegisterSystems registers multiple systems with the world. There can only be one system with a
// given name, which is derived from the function name. If there is a duplicate system name, an
// error will be returned and none of the systems will be registered.
func (w *World) RegisterSystems(systems ...System) error {
	names := make([]string, 0, len(systems))
	for _, system := range systems {
		name := systemName(system)

		if slices.Contains(names, name) {
			return eris.Errorf("duplicate system %q in slice", name)
		}
		if slices.ContainsFunc(w.systems, func(s systemEntry) bool { return s.name == name }) {
			return eris.Errorf("system %q is already registered", name)
		}
		names = append(names, name)
	}

	for i, name := range names {
		w.systems = append(w.systems, systemEntry{name: name, fn: systems[i]})
	}
	return nil
}

// SystemNames returns the names of the registered systems in execution order.
func (w *World) SystemNames() []string {
	names := make([]string, len(w.systems))
	for i, s := range w.systems {
		names[i] = s.name
	}
	return names
}

// Logger returns the logger of the running system, or the world logger outside of systems.
func (w *World) Logger() *zerolog.Logger {
	return &w.current
}

func (w *World) runSystems() error {
	start := time.Now()
	defer func() { w.current = w.logger }()

	for _, s := range w.systems {
		w.current = w.logger.With().Str("system", s.name).Logger()

		systemStart := time.Now()
		if err := s.fn(w); err != nil {
			return eris.Wrapf(err, "system %s generated an error", s.name)
		}
		w.emitTickStat(systemStart, s.name)
	}

	w.emitTickStat(start, "all_systems")
	return nil
}

func systemName(system System) string {
	return filepath.Base(runtime.FuncForPC(reflect.ValueOf(system).Pointer()).Name())
}
