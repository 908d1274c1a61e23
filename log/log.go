// Package log provides context-first structured logging over logrus.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var root = logrus.StandardLogger()

// SetLevel sets the minimum level the root logger emits.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	root.SetLevel(lvl)
	return nil
}

// NewContext attaches a logger, pre-populated with keyvals, to ctx.
func NewContext(ctx context.Context, keyvals ...interface{}) context.Context {
	return context.WithValue(ctx, ctxKey{}, entryFromContext(ctx).WithFields(fields(keyvals)))
}

// CtxLogger returns the logger attached to ctx, or the root logger if none was attached.
func CtxLogger(ctx context.Context) *logrus.Entry {
	return entryFromContext(ctx)
}

func entryFromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
			return e
		}
	}
	return logrus.NewEntry(root)
}

func fields(keyvals []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		f[key] = keyvals[i+1]
	}
	return f
}

func Debug(ctx context.Context, msg string, keyvals ...interface{}) {
	entryFromContext(ctx).WithFields(fields(keyvals)).Debug(msg)
}

func Info(ctx context.Context, msg string, keyvals ...interface{}) {
	entryFromContext(ctx).WithFields(fields(keyvals)).Info(msg)
}

func Warn(ctx context.Context, msg string, keyvals ...interface{}) {
	entryFromContext(ctx).WithFields(fields(keyvals)).Warn(msg)
}

// Error logs msg at error level, attaching err as a field and any extra keyvals.
func Error(ctx context.Context, msg string, err error, keyvals ...interface{}) {
	f := fields(keyvals)
	if err != nil {
		f["error"] = err.Error()
	}
	entryFromContext(ctx).WithFields(f).Error(msg)
}
