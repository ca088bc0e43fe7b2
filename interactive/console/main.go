//go:build unix

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/interactive/console/handle"
	"github.com/Trinoooo/eggie_poll/poller"
	"github.com/Trinoooo/eggie_poll/utils"
	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"
)

func main() {
	wrapper := NewCliWrapper()
	if err := wrapper.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var (
	flagBackend = &cli.StringFlag{
		Name:    "backend",
		Aliases: []string{"b"},
		Value:   consts.BackendEmulated,
		Usage:   "poller backend under test, native or emulated.",
		EnvVars: []string{consts.Backend},
	}
	flagWaitSlice = &cli.DurationFlag{
		Name:  "wait-slice",
		Value: consts.DefaultWaitSlice,
		Usage: "longest time one emulated wait iteration holds the guard.",
	}
)

type CliWrapper struct {
	app *cli.App
}

func NewCliWrapper() *CliWrapper {
	wrapper := &CliWrapper{
		app: &cli.App{
			Name:    "eggie_poll_console",
			Usage:   "drive a poller by hand - create poll sets, register sockets, wait",
			Version: consts.AppVersion,
		},
	}
	wrapper.modifyDefaultHelp()
	wrapper.withFlags()
	wrapper.withAction()
	wrapper.withAuthor()
	return wrapper
}

func (wrapper *CliWrapper) Run(args []string) error {
	return wrapper.app.Run(args)
}

func (wrapper *CliWrapper) modifyDefaultHelp() {
	cli.HelpFlag = &cli.BoolFlag{
		Name: "help",
	}
}

func (wrapper *CliWrapper) withFlags() {
	wrapper.app.Flags = []cli.Flag{
		flagBackend,
		flagWaitSlice,
	}
}

func (wrapper *CliWrapper) withAction() {
	wrapper.app.Action = func(ctx *cli.Context) error {
		p, err := poller.New(ctx.String(flagBackend.Name), poller.WithWaitSlice(ctx.Duration(flagWaitSlice.Name)))
		if err != nil {
			return err
		}
		session := handle.NewSession(p)
		defer session.Release()

		historyDir := "/tmp/eggie_poll/console"
		if err = utils.CheckAndCreateDir(historyDir); err != nil {
			return err
		}
		items := make([]readline.PrefixCompleterInterface, 0, len(handle.Commands))
		for _, cmd := range handle.Commands {
			items = append(items, readline.PcItem(cmd))
		}
		input, err := readline.NewEx(&readline.Config{
			Prompt:       "> ",
			AutoComplete: readline.NewPrefixCompleter(items...),
			HistoryFile:  fmt.Sprintf("%s/cmd_history_%s", historyDir, time.Now().Format("20060102")),
		})
		if err != nil {
			return err
		}
		defer input.Close()
		input.CaptureExitSignal()

		for {
			str, err := input.Readline()
			if err != nil {
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return nil
				}
				log.Println(err)
				continue
			}
			if strings.EqualFold(strings.TrimSpace(str), "exit") {
				return nil
			}
			if out := session.Handle(str); out != "" {
				fmt.Println(out)
			}
		}
	}
}

func (wrapper *CliWrapper) withAuthor() {
	wrapper.app.Authors = []*cli.Author{
		{
			Name:  "Trino",
			Email: "sujun.trinoooo@gmail.com",
		},
	}
}
