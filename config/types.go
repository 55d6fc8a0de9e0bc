package config

// Config defines bridge server and bus-level configuration options.
type Config struct {
	Port               string `json:"port"`               // TCP listening port
	Address            string `json:"address"`            // TCP bind address
	LogLevel           string `json:"logLevel"`           // Logging level (info, debug, etc.)
	MaxConnections     int    `json:"maxConnections"`     // Maximum simultaneous connections
	ReadTimeout        int    `json:"readTimeout"`        // Read timeout in seconds
	WriteTimeout       int    `json:"writeTimeout"`       // Write timeout in seconds
	IdleTimeout        int    `json:"idleTimeout"`        // Idle connection timeout in seconds
	ShutdownTimeout    int    `json:"shutdownTimeout"`    // Graceful shutdown timeout in seconds
	EnableKeepAlive    bool   `json:"enableKeepAlive"`    // Whether to enable TCP keep-alive
	EnableFrameLogging bool   `json:"enableFrameLogging"` // Whether frame logging middleware should be enabled
	BaudRate           uint32 `json:"baudRate"`           // CAN bit rate in Hz applied at startup
}

func Port() string             { return c.Port }
func Address() string          { return c.Address }
func LogLevel() string         { return c.LogLevel }
func MaxConnections() int      { return c.MaxConnections }
func ReadTimeout() int         { return c.ReadTimeout }
func WriteTimeout() int        { return c.WriteTimeout }
func IdleTimeout() int         { return c.IdleTimeout }
func ShutdownTimeout() int     { return c.ShutdownTimeout }
func EnableKeepAlive() bool    { return c.EnableKeepAlive }
func EnableFrameLogging() bool { return c.EnableFrameLogging }
func BaudRate() uint32         { return c.BaudRate }
