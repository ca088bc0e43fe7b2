package logs

import (
	"github.com/Trinoooo/eggie_poll/utils"
	"go.uber.org/zap"
)

var (
	Logger *zap.Logger
	level  zap.AtomicLevel
)

func init() {
	var (
		cfg zap.Config
		err error
	)
	if utils.IsTest() {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	level = cfg.Level
	Logger, err = cfg.Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}
	root = Named("main")
}

// SetLevel changes the level of every logger derived from Logger.
func SetLevel(text string) error {
	return level.UnmarshalText([]byte(text))
}
