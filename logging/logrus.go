package logging

import "github.com/sirupsen/logrus"

// Logrus adapts a *logrus.Entry to the Logger contract. Host applications
// wanting structured, leveled output (the default this library ships)
// construct one with NewLogrus and pass it as the required logger callback
// (spec.md §6).
type Logrus struct {
	entry *logrus.Entry
}

// NewLogrus builds a Logrus adapter around a fresh logrus.Logger, tagging
// every line with "component": "zwavehost".
func NewLogrus() Logrus {
	l := logrus.New()
	return Logrus{entry: l.WithField("component", "zwavehost")}
}

// WithFields returns a derived Logrus carrying additional structured
// fields (node, endpoint, command class, transaction tag, or any others).
// The library's own call sites log through the Logger interface and do
// not call it.
func (l Logrus) WithFields(fields map[string]any) Logrus {
	return Logrus{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l Logrus) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l Logrus) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l Logrus) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l Logrus) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
