package logs

import (
	"github.com/Trinoooo/eggie_poll/consts"
	"go.uber.org/zap"
)

// Component is a logger bound to one part of the system.
type Component struct {
	logger *zap.Logger
}

func Named(component string) *Component {
	return &Component{
		logger: Logger.With(zap.String(consts.LogFieldComponent, component)).WithOptions(zap.AddCallerSkip(1)),
	}
}

func (c *Component) DebugEnabled() bool {
	return c.logger.Core().Enabled(zap.DebugLevel)
}

func (c *Component) Debug(msg string, fields ...zap.Field) {
	c.logger.Debug(msg, fields...)
}

func (c *Component) Info(msg string, fields ...zap.Field) {
	c.logger.Info(msg, fields...)
}

func (c *Component) Warn(msg string, fields ...zap.Field) {
	c.logger.Warn(msg, fields...)
}

func (c *Component) Error(msg string, fields ...zap.Field) {
	c.logger.Error(msg, fields...)
}

func (c *Component) Fatal(msg string, fields ...zap.Field) {
	c.logger.Fatal(msg, fields...)
}

var root *Component

func Info(msg string, fields ...zap.Field) {
	root.logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	root.logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	root.logger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	root.logger.Fatal(msg, fields...)
}
