package common

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
)

// InterceptorLogger adapts a logrus logger to the gRPC logging interceptors.
func InterceptorLogger(l logrus.FieldLogger) logging.Logger {
	return logging.LoggerFunc(func(_ context.Context, lvl logging.Level, msg string, fields ...any) {
		f := make(map[string]any, len(fields)/2)
		i := logging.Fields(fields).Iterator()
		for i.Next() {
			k, v := i.At()
			f[k] = v
		}
		entry := l.WithFields(f)

		switch lvl {
		case logging.LevelDebug:
			entry.Debug(msg)
		case logging.LevelInfo:
			entry.Info(msg)
		case logging.LevelWarn:
			entry.Warn(msg)
		case logging.LevelError:
			entry.Error(msg)
		default:
			entry.Warn(fmt.Sprintf("unknown level %v: %s", lvl, msg))
		}
	})
}

// ParseLogLevel returns the logrus level for name, defaulting to info.
func ParseLogLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Warnf("invalid log level %q, using info", name)
		return logrus.InfoLevel
	}
	return level
}
