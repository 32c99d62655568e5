package logging

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var once sync.Once

var zeroLevelMap = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
	"fatal": zerolog.FatalLevel,
}

type zeroLogger struct {
	cfg    *LoggerConfig
	logger zerolog.Logger
}

func newZeroLogger(cfg *LoggerConfig) *zeroLogger {
	l := &zeroLogger{cfg: cfg}
	l.Init()
	return l
}

func (l *zeroLogger) level() zerolog.Level {
	if lvl, ok := zeroLevelMap[l.cfg.Level]; ok {
		return lvl
	}
	return zerolog.DebugLevel
}

func (l *zeroLogger) Init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	l.logger = zerolog.New(os.Stdout).
		Level(l.level()).
		With().
		Timestamp().
		Str(string(AppName), "petmeet-notify").
		Str(string(LoggerName), "zerolog").
		Logger()
}

func zeroParams(keys map[ExtraKey]any) map[string]any {
	params := make(map[string]any, len(keys))
	for k, v := range keys {
		params[string(k)] = v
	}
	return params
}

func (l *zeroLogger) log(ev *zerolog.Event, cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	ev.Str("Category", string(cat)).
		Str("SubCategory", string(sub)).
		Fields(zeroParams(extra)).
		Msg(msg)
}

func (l *zeroLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Debug(), cat, sub, msg, extra)
}

func (l *zeroLogger) Debugf(template string, args ...any) {
	l.logger.Debug().Msgf(template, args...)
}

func (l *zeroLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Info(), cat, sub, msg, extra)
}

func (l *zeroLogger) Infof(template string, args ...any) {
	l.logger.Info().Msgf(template, args...)
}

func (l *zeroLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Warn(), cat, sub, msg, extra)
}

func (l *zeroLogger) Warnf(template string, args ...any) {
	l.logger.Warn().Msgf(template, args...)
}

func (l *zeroLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Error(), cat, sub, msg, extra)
}

func (l *zeroLogger) Errorf(template string, args ...any) {
	l.logger.Error().Msgf(template, args...)
}

func (l *zeroLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Fatal(), cat, sub, msg, extra)
}

func (l *zeroLogger) Fatalf(template string, args ...any) {
	l.logger.Fatal().Msgf(template, args...)
}
