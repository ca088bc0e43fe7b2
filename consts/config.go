package consts

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
)

func init() {
	home, _ := homedir.Dir()
	BaseDir = fmt.Sprintf("%s/eggie_poll", home)
	DefaultConfigPath = fmt.Sprintf("%s/config", BaseDir)
}

var (
	BaseDir           string
	DefaultConfigPath string
)

const (
	BackendNative   = "native"
	BackendEmulated = "emulated"
)

// config keys
const (
	KeyBackend           = "backend"
	KeyWaitSlice         = "wait_slice"
	KeyMaxPollSets       = "max_poll_sets"
	KeyLogLevel          = "log_level"
	KeyServerHost        = "server.host"
	KeyServerPort        = "server.port"
	KeyServerReactors    = "server.reactors"
	KeyServerWorkers     = "server.workers"
	KeyMetricsGateway    = "metrics.push_gateway"
	KeyMetricsPushPeriod = "metrics.push_interval"
)

// defaults
const (
	DefaultWaitSlice      = 10 * time.Millisecond
	DefaultMaxPollSets    = 1<<31 - 1
	DefaultLogLevel       = "info"
	DefaultServerHost     = "127.0.0.1"
	DefaultServerPort     = 8014
	DefaultServerReactors = 3
	DefaultServerWorkers  = 1000
	DefaultPushInterval   = 5 * time.Second
)
