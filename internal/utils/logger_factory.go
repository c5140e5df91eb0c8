package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	logFormatLogfmtStringConstant        = "logfmt"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"

	// log file rotation, in megabytes, files and days
	logFileMaxSizeConstant    = 10
	logFileMaxBackupsConstant = 3
	logFileMaxAgeConstant     = 30
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
	LogFormatLogfmt     LogFormat = LogFormat(logFormatLogfmtStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// LoggerOptions selects the level, encoding and optional log file of a logger.
type LoggerOptions struct {
	Level  LogLevel
	Format LogFormat
	// FilePath additionally writes JSON entries to a rotated file when set.
	FilePath string
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct {
	output       io.Writer
	colorEnabled bool
	fileWriters  []*lumberjack.Logger
}

// NewLoggerFactory constructs a factory writing to standard error. Console output is colored on terminals.
func NewLoggerFactory() *LoggerFactory {
	standardErrorDescriptor := os.Stderr.Fd()
	terminal := isatty.IsTerminal(standardErrorDescriptor) || isatty.IsCygwinTerminal(standardErrorDescriptor)
	return NewLoggerFactoryWithOutput(os.Stderr, terminal)
}

// NewLoggerFactoryWithOutput constructs a factory writing to output.
func NewLoggerFactoryWithOutput(output io.Writer, colorEnabled bool) *LoggerFactory {
	return &LoggerFactory{output: output, colorEnabled: colorEnabled}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
func (factory *LoggerFactory) CreateLogger(options LoggerOptions) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[LogLevel(strings.ToLower(strings.TrimSpace(string(options.Level))))]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, options.Level)
	}

	encoder, encoderError := factory.buildEncoder(LogFormat(strings.ToLower(strings.TrimSpace(string(options.Format)))))
	if encoderError != nil {
		return nil, encoderError
	}

	levelEnabler := zap.NewAtomicLevelAt(zapLogLevel)
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(factory.output)), levelEnabler)}

	if filePath := strings.TrimSpace(options.FilePath); len(filePath) > 0 {
		fileWriter := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    logFileMaxSizeConstant,
			MaxBackups: logFileMaxBackupsConstant,
			MaxAge:     logFileMaxAgeConstant,
		}
		factory.fileWriters = append(factory.fileWriters, fileWriter)
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(fileWriter), levelEnabler))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// Close releases log files opened by CreateLogger.
func (factory *LoggerFactory) Close() error {
	var closeErrors []error
	for _, fileWriter := range factory.fileWriters {
		if closeError := fileWriter.Close(); closeError != nil {
			closeErrors = append(closeErrors, closeError)
		}
	}
	factory.fileWriters = nil
	return errors.Join(closeErrors...)
}

func (factory *LoggerFactory) buildEncoder(format LogFormat) (zapcore.Encoder, error) {
	switch format {
	case LogFormatStructured:
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), nil
	case LogFormatConsole:
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if factory.colorEnabled {
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(encoderConfig), nil
	case LogFormatLogfmt:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
		return zaplogfmt.NewEncoder(encoderConfig), nil
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, format)
	}
}
