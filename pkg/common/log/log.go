/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log implements module scoped fmt-style logging. Output goes through zap
// unless a custom provider is installed with Initialize.
package log

import (
	"strings"
	"sync"

	"github.com/hyperledger/aries-trust-core/spi/log"
)

//nolint:lll
const (
	loggerNotInitializedMsg = "Default logger initialized (please call log.Initialize() if you wish to use a custom logger)"
	loggerModule            = "trustcore/common"
)

// Log is a lazily initialized module logger.
type Log struct {
	instance log.Logger
	module   string
	once     sync.Once
}

// New creates a logger for the given module. The backend is resolved on first use.
func New(module string) *Log {
	return &Log{module: module}
}

// Fatalf logs and terminates the process, depending on the backend.
func (l *Log) Fatalf(msg string, args ...interface{}) {
	l.logger().Fatalf(msg, args...)
}

// Errorf logs at ERROR level.
func (l *Log) Errorf(msg string, args ...interface{}) {
	l.logger().Errorf(msg, args...)
}

// Warnf logs at WARNING level.
func (l *Log) Warnf(msg string, args ...interface{}) {
	l.logger().Warnf(msg, args...)
}

// Infof logs at INFO level.
func (l *Log) Infof(msg string, args ...interface{}) {
	l.logger().Infof(msg, args...)
}

// Debugf logs at DEBUG level.
func (l *Log) Debugf(msg string, args ...interface{}) {
	l.logger().Debugf(msg, args...)
}

func (l *Log) logger() log.Logger {
	l.once.Do(func() {
		l.instance = loggerProvider().GetLogger(l.module)
	})

	return l.instance
}

// SetLevel sets the level of a module. An empty module name sets the default level.
// If not set the level is INFO.
func SetLevel(module string, level log.Level) {
	levels.set(module, level)
}

// GetLevel returns the level of a module.
func GetLevel(module string) log.Level {
	return levels.get(module)
}

// IsEnabledFor reports whether messages of the given level are logged for the module.
func IsEnabledFor(module string, level log.Level) bool {
	return levels.isEnabled(module, level)
}

// SetSpec applies a level spec of the form module1=level1:module2=level2:defaultLevel.
func SetSpec(spec string) error {
	for _, part := range strings.Split(spec, ":") {
		if part == "" {
			continue
		}

		module, levelStr := "", part

		if i := strings.Index(part, "="); i >= 0 {
			module, levelStr = part[:i], part[i+1:]
		}

		level, err := ParseLevel(levelStr)
		if err != nil {
			return err
		}

		SetLevel(module, level)
	}

	return nil
}
