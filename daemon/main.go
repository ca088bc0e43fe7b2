package main

import (
	"os"

	"github.com/Trinoooo/eggie_poll/logs"
	"github.com/Trinoooo/eggie_poll/server/cli"
	"go.uber.org/zap"
)

func main() {
	if err := cli.NewWrapper().Run(os.Args); err != nil {
		logs.Fatal("eggie_poll exit", zap.Error(err))
	}
}
