/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log defines the logging contract used by every trust core module.
package log

import "fmt"

// Level is a log level for a logging message.
type Level int

// Log levels, ordered from least to most verbose.
const (
	CRITICAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

// String returns the lower case name of the level.
func (l Level) String() string {
	switch l {
	case CRITICAL:
		return "critical"
	case ERROR:
		return "error"
	case WARNING:
		return "warning"
	case INFO:
		return "info"
	case DEBUG:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Logger represents a general-purpose logger.
type Logger interface {
	Fatalf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Debugf(msg string, args ...interface{})
}

// LoggerProvider is a factory for moduled loggers.
type LoggerProvider interface {
	GetLogger(module string) Logger
}
