/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hyperledger/aries-trust-core/spi/log"
)

// Encoding of the default zap backed logger.
type Encoding = string

// Supported encodings.
const (
	Console Encoding = "console"
	JSON    Encoding = "json"
)

const (
	timestampKey = "time"
	levelKey     = "level"
	moduleKey    = "logger"
	callerKey    = "caller"
	messageKey   = "msg"
)

// ZapOption configures the zap logger provider.
type ZapOption func(p *ZapProvider)

// WithEncoding selects console or json output.
func WithEncoding(encoding Encoding) ZapOption {
	return func(p *ZapProvider) {
		p.encoding = encoding
	}
}

// WithOutput redirects log output, stderr by default.
func WithOutput(out zapcore.WriteSyncer) ZapOption {
	return func(p *ZapProvider) {
		p.out = out
	}
}

// ZapProvider creates module loggers backed by go.uber.org/zap.
type ZapProvider struct {
	encoding Encoding
	out      zapcore.WriteSyncer
}

// NewZapProvider returns a logger provider writing through zap.
func NewZapProvider(opts ...ZapOption) *ZapProvider {
	p := &ZapProvider{encoding: Console, out: zapcore.Lock(os.Stderr)}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// GetLogger returns a sugared zap logger named after the module.
func (p *ZapProvider) GetLogger(module string) log.Logger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        timestampKey,
		LevelKey:       levelKey,
		NameKey:        moduleKey,
		CallerKey:      callerKey,
		MessageKey:     messageKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	var encoder zapcore.Encoder
	if p.encoding == JSON {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	// module levels are filtered by the moduled wrapper, zap sees everything
	core := zapcore.NewCore(encoder, p.out, zap.NewAtomicLevelAt(zapcore.DebugLevel))

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).Named(module).Sugar()
}
