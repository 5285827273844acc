package logger

import (
	"os"

	"Sarah_AI/internal/models"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus to provide structured, service-scoped logging.
type Logger struct {
	entry *logrus.Entry
}

// Init sets up the global logrus configuration. Output is JSON on stdout so
// the platform's log collector can index it.
func Init(level logrus.Level) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// New creates a Logger with the given service name pre-set on every entry.
func New(serviceName string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
		}),
	}
}

// WithScope returns a Logger that also carries the (user, character) scope.
func (l *Logger) WithScope(userID, characterID string) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields{
		"user_id":      userID,
		"character_id": characterID,
	})}
}

// WithError attaches structured error details to the entry.
func (l *Logger) WithError(err models.ErrorInfo) *Logger {
	return &Logger{entry: l.entry.WithField("error", err)}
}

// WithPayload attaches arbitrary business data to the entry.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

// Info logs at info level.
func (l *Logger) Info(message string) { l.entry.Info(message) }

// Warn logs at warning level.
func (l *Logger) Warn(message string) { l.entry.Warn(message) }

// Error logs at error level.
func (l *Logger) Error(message string) { l.entry.Error(message) }

// Debug logs at debug level.
func (l *Logger) Debug(message string) { l.entry.Debug(message) }

// Fatal logs at fatal level and terminates the process.
func (l *Logger) Fatal(message string) { l.entry.Fatal(message) }
