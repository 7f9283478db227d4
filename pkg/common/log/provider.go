/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"sync"

	"github.com/hyperledger/aries-trust-core/spi/log"
)

//nolint:gochecknoglobals
var (
	loggerProviderInstance log.LoggerProvider
	loggerProviderOnce     sync.Once
	levels                 = newModuleLevels()
)

// Initialize sets a custom logging provider. It must be called before the first
// line is logged, later calls are ignored.
func Initialize(l log.LoggerProvider) {
	loggerProviderOnce.Do(func() {
		loggerProviderInstance = &moduledProvider{custom: l}
		loggerProviderInstance.GetLogger(loggerModule).Debugf("Logger provider initialized")
	})
}

func loggerProvider() log.LoggerProvider {
	loggerProviderOnce.Do(func() {
		loggerProviderInstance = &moduledProvider{custom: NewZapProvider()}
		loggerProviderInstance.GetLogger(loggerModule).Debugf(loggerNotInitializedMsg)
	})

	return loggerProviderInstance
}

// moduledProvider applies per module level filtering on top of the backend.
type moduledProvider struct {
	custom log.LoggerProvider
}

func (p *moduledProvider) GetLogger(module string) log.Logger {
	return &moduledLogger{logger: p.custom.GetLogger(module), module: module}
}

type moduledLogger struct {
	logger log.Logger
	module string
}

func (m *moduledLogger) Fatalf(format string, args ...interface{}) {
	m.logger.Fatalf(format, args...)
}

func (m *moduledLogger) Errorf(format string, args ...interface{}) {
	if levels.isEnabled(m.module, log.ERROR) {
		m.logger.Errorf(format, args...)
	}
}

func (m *moduledLogger) Warnf(format string, args ...interface{}) {
	if levels.isEnabled(m.module, log.WARNING) {
		m.logger.Warnf(format, args...)
	}
}

func (m *moduledLogger) Infof(format string, args ...interface{}) {
	if levels.isEnabled(m.module, log.INFO) {
		m.logger.Infof(format, args...)
	}
}

func (m *moduledLogger) Debugf(format string, args ...interface{}) {
	if levels.isEnabled(m.module, log.DEBUG) {
		m.logger.Debugf(format, args...)
	}
}
