/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"errors"
	"strings"
	"sync"

	"github.com/hyperledger/aries-trust-core/spi/log"
)

const defaultLevel = log.INFO

// moduleLevels keeps the level configured for each module. Modules without an
// explicit entry use the default level.
type moduleLevels struct {
	mutex        sync.RWMutex
	levels       map[string]log.Level
	defaultLevel log.Level
}

func newModuleLevels() *moduleLevels {
	return &moduleLevels{levels: make(map[string]log.Level), defaultLevel: defaultLevel}
}

func (l *moduleLevels) get(module string) log.Level {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if level, ok := l.levels[module]; ok {
		return level
	}

	return l.defaultLevel
}

func (l *moduleLevels) set(module string, level log.Level) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if module == "" {
		l.defaultLevel = level

		return
	}

	l.levels[module] = level
}

func (l *moduleLevels) reset() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.levels = make(map[string]log.Level)
	l.defaultLevel = defaultLevel
}

func (l *moduleLevels) isEnabled(module string, level log.Level) bool {
	return level <= l.get(module)
}

// ParseLevel returns the log level from a string representation.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "critical", "fatal", "panic":
		return log.CRITICAL, nil
	case "error":
		return log.ERROR, nil
	case "warning", "warn":
		return log.WARNING, nil
	case "info":
		return log.INFO, nil
	case "debug":
		return log.DEBUG, nil
	default:
		return log.ERROR, errors.New("logger: invalid log level")
	}
}
