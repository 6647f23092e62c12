package logging

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/go-pranalyzer/internal/jsonutil"
)

// StructuredFormatter provides JSON output formatting for structured logging.
type StructuredFormatter struct {
	// DisableTimestamp disables automatic timestamp generation
	DisableTimestamp bool
	// TimestampFormat sets the format for the timestamp field
	TimestampFormat string
}

// NewStructuredFormatter creates a new StructuredFormatter using RFC3339 timestamps.
func NewStructuredFormatter() *StructuredFormatter {
	return &StructuredFormatter{
		TimestampFormat: time.RFC3339,
	}
}

// Format formats a logrus.Entry as a single JSON line.
func (f *StructuredFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(logrus.Fields, len(entry.Data)+3)

	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			data[k] = err.Error()
			continue
		}
		data[k] = v
	}

	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	if !f.DisableTimestamp {
		timestampFormat := f.TimestampFormat
		if timestampFormat == "" {
			timestampFormat = time.RFC3339
		}
		data[StandardFields.Timestamp] = entry.Time.Format(timestampFormat)
	}

	jsonBytes, err := jsonutil.MarshalJSON(data)
	if err != nil {
		return nil, err
	}

	return append(jsonBytes, '\n'), nil
}

// ConfigureLogger configures a logrus.Logger from a LogConfig.
//
// Verbose flags win over an explicit level. JSON output selects the
// StructuredFormatter, otherwise a timestamped text formatter is used.
// The redaction hook is always installed.
func ConfigureLogger(logger *logrus.Logger, config *LogConfig) error {
	if config == nil {
		return nil
	}

	var level logrus.Level
	switch {
	case config.Verbose == 1:
		level = logrus.DebugLevel
	case config.Verbose >= 2:
		level = logrus.TraceLevel
	case config.LogLevel != "":
		parsed, err := logrus.ParseLevel(config.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", config.LogLevel, err)
		}
		level = parsed
	default:
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.AddHook(NewRedactionService().CreateHook())

	if config.JSONOutput || config.LogFormat == "json" {
		logger.SetFormatter(NewStructuredFormatter())
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  "15:04:05",
			PadLevelText:     true,
			QuoteEmptyFields: true,
		})
	}

	return nil
}

// WithStandardFields creates an entry carrying the component name and,
// when present, the correlation ID.
func WithStandardFields(logger logrus.FieldLogger, config *LogConfig, component string) *logrus.Entry {
	fields := logrus.Fields{
		StandardFields.Component: component,
	}

	if config != nil && config.CorrelationID != "" {
		fields[StandardFields.CorrelationID] = config.CorrelationID
	}

	return logger.WithFields(fields)
}

// Component returns a component-scoped entry, falling back to the standard
// logger when none is supplied.
func Component(logger logrus.FieldLogger, component string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField(StandardFields.Component, component)
}
