package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel はログのレベルを表す型です。
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu       sync.RWMutex
	logLevel = LevelInfo
	format   = "cli"
	output   io.Writer = os.Stderr
	base     = newZerolog(output, format, logLevel)
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
}

// toZerologLevel は LogLevel を zerolog のレベルに変換します。
func toZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func newZerolog(w io.Writer, f string, level LogLevel) zerolog.Logger {
	if f == "cli" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02T15:04:05.000Z07:00", NoColor: true}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(level))
}

// rebuild は現在の設定で基盤のロガーを作り直します。mu を保持した状態で呼び出してください。
func rebuild() {
	base = newZerolog(output, format, logLevel)
}

// SetLogLevel はログレベルを設定します。
func SetLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	unknown := false
	switch strings.ToUpper(level) {
	case "DEBUG":
		logLevel = LevelDebug
	case "INFO":
		logLevel = LevelInfo
	case "WARN":
		logLevel = LevelWarn
	case "ERROR":
		logLevel = LevelError
	case "FATAL":
		logLevel = LevelFatal
	default:
		unknown = true
		logLevel = LevelInfo
	}
	rebuild()
	if unknown {
		base.Warn().Msgf("不明なログレベル '%s' が指定されました。INFO レベルで続行します。", level)
	}
}

// SetFormat は出力形式を設定します。"json" 以外は人間向けのコンソール形式になります。
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()

	if strings.ToLower(f) == "json" {
		format = "json"
	} else {
		format = "cli"
	}
	rebuild()
}

// SetOutput はログの出力先を変更します。主にテストで使用します。
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	output = w
	rebuild()
}

// Level は現在のログレベルを返します。
func Level() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debugf は DEBUG レベルのログを出力します。
func Debugf(format string, v ...interface{}) {
	l := current()
	l.Debug().Msgf(format, v...)
}

// Infof は INFO レベルのログを出力します。
func Infof(format string, v ...interface{}) {
	l := current()
	l.Info().Msgf(format, v...)
}

// Warnf は WARN レベルのログを出力します。
func Warnf(format string, v ...interface{}) {
	l := current()
	l.Warn().Msgf(format, v...)
}

// Errorf は ERROR レベルのログを出力します。
func Errorf(format string, v ...interface{}) {
	l := current()
	l.Error().Msgf(format, v...)
}

// Fatalf は FATAL レベルのログを出力し、プログラムを終了します。
func Fatalf(format string, v ...interface{}) {
	l := current()
	l.Fatal().Msgf(format, v...)
}
