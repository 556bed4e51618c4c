// SPDX-License-Identifier: Apache-2.0

package factory

const (
	ExpectedConfigVersion = "1.0.0"
)

// Config is the top-level shape of the eNodeB's YAML configuration file.
type Config struct {
	Info          *Info          `yaml:"info"`
	Logger        *LoggerConfig  `yaml:"logger"`
	Configuration *Configuration `yaml:"configuration"`
}

type Info struct {
	Version string `yaml:"version,omitempty"`
}

// LoggerConfig carries one debug level per subsystem, matching the
// category tags logger.go assigns to each package's SugaredLogger.
type LoggerConfig struct {
	BitIO   *SubsystemLogConfig `yaml:"bitIO"`
	Mac     *SubsystemLogConfig `yaml:"mac"`
	Gw      *SubsystemLogConfig `yaml:"gw"`
	Timer   *SubsystemLogConfig `yaml:"timer"`
	Bus     *SubsystemLogConfig `yaml:"bus"`
	EnbUser *SubsystemLogConfig `yaml:"enbUser"`
	Cfg     *SubsystemLogConfig `yaml:"cfg"`
	Init    *SubsystemLogConfig `yaml:"init"`
	App     *SubsystemLogConfig `yaml:"app"`
}

type SubsystemLogConfig struct {
	DebugLevel string `yaml:"debugLevel,omitempty"`
}

// Configuration holds the gateway's TUN device and tick-interval
// parameters.
type Configuration struct {
	TunDeviceName  string `yaml:"tunDeviceName"`
	StartIPAddress string `yaml:"startIpAddress"`
	Netmask        string `yaml:"netmask"`
	TickIntervalMs uint32 `yaml:"tickIntervalMs"`
}

func (c *Config) getVersion() string {
	if c.Info != nil && c.Info.Version != "" {
		return c.Info.Version
	}
	return ""
}
