// Package logging configures logrus and carries a request-scoped entry
// through context.Context.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// Setup configures the standard logrus logger.  Production environments
// log JSON, everything else the text formatter.  Unknown levels fall back
// to info.
func Setup(env, level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	if env == "prod" || env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)
}

// ToContext returns a copy of ctx carrying entry.
func ToContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext returns the entry stored by ToContext, or a fresh entry on
// the standard logger.
func FromContext(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && e != nil {
		return e
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// Discard returns an entry that writes nowhere.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
