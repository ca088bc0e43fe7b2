package consts

const (
	B = 1 << (iota * 10)
	KB
	MB
	GB
)

const HelpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
COMMANDS:
{{range .Commands}}{{if not .HideHelp}}   {{join .Names ", "}}{{ "\t"}}{{.Usage}}{{ "\n" }}{{end}}{{end}}{{end}}{{if .VisibleFlags}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}{{end}}{{if .Copyright }}
COPYRIGHT:
   {{.Copyright}}
   {{end}}{{if .Version}}
VERSION:
   {{.Version}}
   {{end}}
`

const (
	AppName    = "eggie_poll"
	AppVersion = "0.1.0.241017_alpha"
)

// log field names
const (
	LogFieldParams    = "params"
	LogFieldValue     = "value"
	LogFieldComponent = "component"
	LogFieldPollFd    = "cpfd"
	LogFieldFd        = "fd"
	LogFieldOp        = "op"
	LogFieldEvents    = "events"
	LogFieldTimeout   = "timeout_ms"
	LogFieldReady     = "ready"
	LogFieldReactor   = "reactor"
	LogFieldRemote    = "remote"
	LogFieldBackend   = "backend"
)
