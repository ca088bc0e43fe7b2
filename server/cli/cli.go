package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Trinoooo/eggie_poll/config"
	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/Trinoooo/eggie_poll/logs"
	"github.com/Trinoooo/eggie_poll/poller"
	"github.com/Trinoooo/eggie_poll/server"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	flagConfigDir = &cli.StringFlag{
		Name:    "config-dir",
		Aliases: []string{"c"},
		Usage:   "directory holding config.yaml, defaults to ~/eggie_poll/config.",
		EnvVars: []string{consts.ConfigDir},
	}
	flagHost = &cli.StringFlag{
		Name:    "host",
		Aliases: []string{"h"},
		Value:   consts.DefaultServerHost,
		Usage:   "server host name.",
		EnvVars: []string{consts.Host},
	}
	flagPort = &cli.Int64Flag{
		Name:    "port",
		Aliases: []string{"p"},
		Value:   consts.DefaultServerPort,
		Usage:   "server port number, 0 < port < 65535 are available.",
		Action: func(c *cli.Context, port int64) error {
			if port <= 0 || port > 65535 {
				e := errs.NewInvalidParamErr()
				logs.Error(e.Error(), zap.String(consts.LogFieldParams, "port"), zap.Int64(consts.LogFieldValue, port))
				return e
			}
			return nil
		},
		EnvVars: []string{consts.Port},
	}
	flagBackend = &cli.StringFlag{
		Name:    "backend",
		Aliases: []string{"b"},
		Value:   consts.BackendNative,
		Usage:   "poller backend, native or emulated.",
		Action: func(c *cli.Context, backend string) error {
			if backend != consts.BackendNative && backend != consts.BackendEmulated {
				e := errs.NewUnsupportedBackendErr()
				logs.Error(e.Error(), zap.String(consts.LogFieldParams, "backend"), zap.String(consts.LogFieldValue, backend))
				return e
			}
			return nil
		},
		EnvVars: []string{consts.Backend},
	}
	flagReactors = &cli.IntFlag{
		Name:    "reactors",
		Aliases: []string{"r"},
		Value:   consts.DefaultServerReactors,
		Usage:   "number of reactors, each owning one poll set.",
	}
	flagPushGateway = &cli.StringFlag{
		Name:    "push-gateway",
		Usage:   "prometheus pushgateway address, metrics are not pushed when empty.",
		EnvVars: []string{consts.PushGateway},
	}
)

type Wrapper struct {
	app *cli.App
}

func NewWrapper() *Wrapper {
	wrapper := &Wrapper{
		app: &cli.App{
			Name:    consts.AppName,
			Usage:   "an echo server driven by a portable readiness poller",
			Version: consts.AppVersion,
		},
	}
	wrapper.modifyDefaultHelp()
	wrapper.withFlags()
	wrapper.withAction()
	wrapper.withAuthor()
	return wrapper
}

func (wrapper *Wrapper) Run(args []string) error {
	return wrapper.app.Run(args)
}

func (wrapper *Wrapper) modifyDefaultHelp() {
	cli.HelpFlag = &cli.BoolFlag{
		Name: "help",
	}
	cli.AppHelpTemplate = consts.HelpTemplate
}

func (wrapper *Wrapper) withFlags() {
	wrapper.app.Flags = []cli.Flag{
		flagConfigDir,
		flagHost,
		flagPort,
		flagBackend,
		flagReactors,
		flagPushGateway,
	}
}

// loadConfig layers explicitly set flags over the config file.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(flagConfigDir.Name))
	if err != nil {
		return nil, err
	}
	overrides := []struct {
		flag  string
		key   string
		value interface{}
	}{
		{flagHost.Name, consts.KeyServerHost, ctx.String(flagHost.Name)},
		{flagPort.Name, consts.KeyServerPort, ctx.Int64(flagPort.Name)},
		{flagBackend.Name, consts.KeyBackend, ctx.String(flagBackend.Name)},
		{flagReactors.Name, consts.KeyServerReactors, ctx.Int(flagReactors.Name)},
		{flagPushGateway.Name, consts.KeyMetricsGateway, ctx.String(flagPushGateway.Name)},
	}
	for _, o := range overrides {
		if !ctx.IsSet(o.flag) {
			continue
		}
		if err = cfg.Set(o.key, o.value); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (wrapper *Wrapper) withAction() {
	wrapper.app.Action = func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		if err = logs.SetLevel(cfg.LogLevel); err != nil {
			logs.Warn("invalid log level, keep default", zap.String(consts.LogFieldValue, cfg.LogLevel))
		}

		if err = poller.Startup(); err != nil {
			return err
		}
		defer poller.Cleanup()

		metricsHelper := poller.NewMetricsHelper()
		pushCtx, cancelPush := context.WithCancel(context.Background())
		defer cancelPush()
		if cfg.Metrics.PushGateway != "" {
			metricsHelper.StartPush(pushCtx, cfg.Metrics.PushGateway, cfg.Metrics.PushInterval)
		}

		p, err := poller.New(cfg.Backend,
			poller.WithWaitSlice(cfg.WaitSlice),
			poller.WithMaxPollSets(cfg.MaxPollSets),
			poller.WithMetrics(metricsHelper),
		)
		if err != nil {
			return err
		}
		poller.SetDefault(p)
		logs.Info("poller ready", zap.String(consts.LogFieldBackend, cfg.Backend))

		cfg.Watch(func(next *config.Config) {
			if err := logs.SetLevel(next.LogLevel); err != nil {
				logs.Warn("invalid log level", zap.String(consts.LogFieldValue, next.LogLevel))
			}
			if em, ok := p.(*poller.Emulator); ok {
				em.SetWaitSlice(next.WaitSlice)
			}
		})

		srv, err := server.NewReactorServer(cfg.Server, p, server.WithMetrics(server.NewMetricsHelper(metricsHelper.Registry)))
		if err != nil {
			return err
		}

		go func() {
			// bugfix: 使用缓冲通道避免执行信号处理程序（下面的for）之前有信号到达会被丢弃
			sig := make(chan os.Signal, 5)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			for range sig {
				logs.Info("shutdown...")
				if err := srv.Close(); err != nil {
					logs.Error(fmt.Sprintf("server shutdown, err: %v", err))
				}
			}
		}()

		return srv.Serve()
	}
}

func (wrapper *Wrapper) withAuthor() {
	wrapper.app.Authors = []*cli.Author{
		{
			Name:  "Trino",
			Email: "sujun.trinoooo@gmail.com",
		},
	}
}
