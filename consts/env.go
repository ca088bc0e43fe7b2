package consts

const (
	Env         = "EGGIE_POLL_ENV"          // test 表示测试环境
	Host        = "EGGIE_POLL_HOST"         // 主机名，目前只支持ip
	Port        = "EGGIE_POLL_PORT"         // 端口
	Backend     = "EGGIE_POLL_BACKEND"      // native / emulated
	ConfigDir   = "EGGIE_POLL_CONFIG_DIR"   // 配置文件目录
	EnvPrefix   = "EGGIE_POLL"              // viper 环境变量前缀
	PushGateway = "EGGIE_POLL_PUSH_GATEWAY" // prometheus pushgateway 地址
)
