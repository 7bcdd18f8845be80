// Package log provides per-module loggers on top of logrus.
//
// Every component of the emulator logs through one of the predefined
// modules so output can be filtered by origin. Warnings and errors are
// always emitted; debug and info output is opt-in per module.
package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured fields attached to an entry.
type Fields = logrus.Fields

// Module identifies the component that produced a log entry.
type Module uint

// ModuleMask is a bitset of modules.
type ModuleMask uint64

const (
	ModEmu Module = iota + 1
	ModCPU
	ModMem
	ModPPU
	ModCart
	ModTimer
	ModInput

	endMods
)

// ModuleMaskAll enables every module.
const ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF

var modNames = [...]string{
	"<error>", "emu", "cpu", "mem", "ppu", "cart", "timer", "input",
}

var (
	logger    = newLogger()
	debugMask ModuleMask
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	return l
}

// String returns the short module name.
func (m Module) String() string {
	if int(m) < len(modNames) {
		return modNames[m]
	}
	return modNames[0]
}

// Mask returns the bit for m in a ModuleMask.
func (m Module) Mask() ModuleMask {
	return 1 << ModuleMask(m)
}

// Enabled reports whether entries at lvl are emitted for m.
func (m Module) Enabled(lvl logrus.Level) bool {
	if !logger.IsLevelEnabled(lvl) {
		return false
	}
	return lvl <= logrus.WarnLevel || debugMask&m.Mask() != 0
}

// ModuleByName looks a module up by its short name.
func ModuleByName(name string) (Module, bool) {
	for i := ModEmu; i < endMods; i++ {
		if modNames[i] == name {
			return i, true
		}
	}
	return 0, false
}

// EnableModules turns on info and debug output for the modules in mask.
func EnableModules(mask ModuleMask) {
	debugMask |= mask
}

// DisableModules turns off info and debug output for the modules in mask.
func DisableModules(mask ModuleMask) {
	debugMask &^= mask
}

// ParseModules parses a comma separated module list ("cpu,ppu" or "all").
func ParseModules(list string) (ModuleMask, error) {
	var mask ModuleMask
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "":
			continue
		case "all":
			return ModuleMaskAll, nil
		}
		m, ok := ModuleByName(name)
		if !ok {
			return 0, fmt.Errorf("unknown log module %q", name)
		}
		mask |= m.Mask()
	}
	return mask, nil
}

// SetLevel sets the global level ("debug", "info", "warn", ...).
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func (m Module) entry() *logrus.Entry {
	return logger.WithField("mod", m.String())
}

// WithField returns an entry carrying one extra field.
func (m Module) WithField(key string, value any) Entry {
	return Entry{mod: m}.WithField(key, value)
}

// WithFields returns an entry carrying extra fields.
func (m Module) WithFields(fields Fields) Entry {
	return Entry{mod: m, extra: fields}
}

func (m Module) Debugf(format string, args ...any) { Entry{mod: m}.Debugf(format, args...) }
func (m Module) Infof(format string, args ...any)  { Entry{mod: m}.Infof(format, args...) }
func (m Module) Warnf(format string, args ...any)  { Entry{mod: m}.Warnf(format, args...) }
func (m Module) Errorf(format string, args ...any) { Entry{mod: m}.Errorf(format, args...) }

type field struct {
	key   string
	value any
}

// Entry is a pending log line for a module. Fields are kept inline and only
// turned into a logrus map when the entry is actually emitted.
type Entry struct {
	mod    Module
	fields [4]field
	n      int
	extra  Fields
}

// WithField adds a field to the entry.
func (e Entry) WithField(key string, value any) Entry {
	if e.n < len(e.fields) {
		e.fields[e.n] = field{key, value}
		e.n++
		return e
	}
	extra := make(Fields, len(e.extra)+1)
	for k, v := range e.extra {
		extra[k] = v
	}
	extra[key] = value
	e.extra = extra
	return e
}

func (e Entry) log() *logrus.Entry {
	l := e.mod.entry()
	if e.n == 0 && len(e.extra) == 0 {
		return l
	}
	f := make(Fields, e.n+len(e.extra))
	for k, v := range e.extra {
		f[k] = v
	}
	for _, fl := range e.fields[:e.n] {
		f[fl.key] = fl.value
	}
	return l.WithFields(f)
}

func (e Entry) Debugf(format string, args ...any) {
	if e.mod.Enabled(logrus.DebugLevel) {
		e.log().Debugf(format, args...)
	}
}

func (e Entry) Infof(format string, args ...any) {
	if e.mod.Enabled(logrus.InfoLevel) {
		e.log().Infof(format, args...)
	}
}

func (e Entry) Warnf(format string, args ...any) {
	if e.mod.Enabled(logrus.WarnLevel) {
		e.log().Warnf(format, args...)
	}
}

func (e Entry) Errorf(format string, args ...any) {
	if e.mod.Enabled(logrus.ErrorLevel) {
		e.log().Errorf(format, args...)
	}
}
