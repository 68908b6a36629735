// Package logging provides the structured logging seam used throughout
// proxycore: a small interface in front of sirupsen/logrus so call sites
// never depend on logrus directly. Logging never gates control flow,
// every call here is additive to the state machines it instruments.
package logging

import "github.com/sirupsen/logrus"

// Fields carries structured key/value context for one log call, the same
// shape logrus.Fields uses.
type Fields map[string]interface{}

// Logger is the interface every proxycore component logs through.
type Logger interface {
	Debugf(fields Fields, format string, args ...interface{})
	Infof(fields Fields, format string, args ...interface{})
	Warnf(fields Fields, format string, args ...interface{})
	Errorf(fields Fields, format string, args ...interface{})
}

// logrusLogger adapts *logrus.Logger to Logger.
type logrusLogger struct {
	base *logrus.Logger
}

// New builds a Logger backed by a fresh logrus.Logger configured with a
// plain text formatter.
func New(level logrus.Level) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(level)
	return &logrusLogger{base: l}
}

func (l *logrusLogger) entry(f Fields) *logrus.Entry {
	return l.base.WithFields(logrus.Fields(f))
}

func (l *logrusLogger) Debugf(f Fields, format string, args ...interface{}) {
	l.entry(f).Debugf(format, args...)
}

func (l *logrusLogger) Infof(f Fields, format string, args ...interface{}) {
	l.entry(f).Infof(format, args...)
}

func (l *logrusLogger) Warnf(f Fields, format string, args ...interface{}) {
	l.entry(f).Warnf(format, args...)
}

func (l *logrusLogger) Errorf(f Fields, format string, args ...interface{}) {
	l.entry(f).Errorf(format, args...)
}

// Nop returns a Logger that discards everything; useful for tests that
// want to exercise logging call sites without a logrus dependency.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debugf(Fields, string, ...interface{}) {}
func (nopLogger) Infof(Fields, string, ...interface{})  {}
func (nopLogger) Warnf(Fields, string, ...interface{})  {}
func (nopLogger) Errorf(Fields, string, ...interface{}) {}
