// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/sirupsen/logrus"
)

// DebugSeverity is the severity of a message emitted by a validation layer.
type DebugSeverity int

// Validation message severities.
const (
	SeverityVerbose DebugSeverity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s DebugSeverity) String() string {
	switch s {
	case SeverityVerbose:
		return "verbose"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// DebugMessage is one message emitted by a validation layer.
type DebugMessage struct {
	Severity DebugSeverity
	Layer    string
	Code     int32
	Text     string
}

// DebugCallback receives validation layer messages. It must not fail.
type DebugCallback func(DebugMessage)

// RouteDebugMessages returns a DebugCallback writing messages into log at
// the level matching their severity. Anything going wrong inside the sink
// is swallowed.
func RouteDebugMessages(log logrus.FieldLogger) DebugCallback {
	log = loggerOrDefault(log)
	return func(m DebugMessage) {
		defer func() {
			_ = recover()
		}()
		entry := log.WithFields(logrus.Fields{
			"layer": m.Layer,
			"code":  m.Code,
		})
		switch m.Severity {
		case SeverityError:
			entry.Error(m.Text)
		case SeverityWarning:
			entry.Warn(m.Text)
		case SeverityInfo:
			entry.Info(m.Text)
		default:
			entry.Debug(m.Text)
		}
	}
}

func loggerOrDefault(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}
