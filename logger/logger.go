// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger for env. "prod" logs JSON, "dev" and "local" log
// to a colored console. A non-empty level (debug, info, warn, error)
// overrides the environment's default level.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown logging environment %q", env)
	}
	if level != "" {
		var l zapcore.Level
		if e := l.UnmarshalText([]byte(level)); e != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, e)
		}
		cfg.Level = zap.NewAtomicLevelAt(l)
	}
	log, e := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if e != nil {
		return nil, fmt.Errorf("build logger: %w", e)
	}
	return log, nil
}
