// SPDX-License-Identifier: Apache-2.0

// Command fdd-enb-gw wires the gateway dataplane and timer manager together:
// it loads a YAML configuration file, sets per-subsystem log levels, brings
// up the TUN device, and drives the timer manager off a ticker posted onto
// the inter-layer message bus.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap/zapcore"

	"github.com/openlte-go/fdd-enb/bus"
	"github.com/openlte-go/fdd-enb/enbuser"
	"github.com/openlte-go/fdd-enb/factory"
	"github.com/openlte-go/fdd-enb/gw"
	"github.com/openlte-go/fdd-enb/logger"
	"github.com/openlte-go/fdd-enb/timer"
)

var appLog = logger.AppLog

var cliFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "cfg",
		Usage: "eNodeB configuration file",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "fdd-enb-gw"
	app.Usage = "-cfg eNodeB configuration file"
	app.Action = action
	app.Flags = cliFlags
	if err := app.Run(os.Args); err != nil {
		appLog.Errorf("fdd-enb-gw run error: %v", err)
		os.Exit(1)
	}
}

func action(c *cli.Context) error {
	cfgPath := c.String("cfg")
	if cfgPath == "" {
		return fmt.Errorf("missing required -cfg flag")
	}
	absPath, err := filepath.Abs(cfgPath)
	if err != nil {
		logger.CfgLog.Errorln(err)
		return err
	}
	if err := factory.InitConfigFactory(absPath); err != nil {
		return err
	}
	if err := factory.CheckConfigVersion(); err != nil {
		return err
	}
	setLogLevels()

	return run(factory.EnbConfig.Configuration)
}

// setLogLevels applies the per-subsystem debug level from the loaded
// configuration. Every subsystem shares the process-wide atomic level, so
// the last one set wins; the config's subsystem sections exist to document
// intent even though they currently all feed the same knob.
func setLogLevels() {
	cfgLogger := factory.EnbConfig.Logger
	if cfgLogger == nil {
		logger.InitLog.Warnln("eNodeB config without log level setting")
		return
	}
	for _, sub := range []*factory.SubsystemLogConfig{
		cfgLogger.App, cfgLogger.Init, cfgLogger.Cfg, cfgLogger.BitIO,
		cfgLogger.Mac, cfgLogger.Gw, cfgLogger.Timer, cfgLogger.Bus,
		cfgLogger.EnbUser,
	} {
		if sub == nil || sub.DebugLevel == "" {
			continue
		}
		level, err := zapcore.ParseLevel(sub.DebugLevel)
		if err != nil {
			logger.InitLog.Warnf("log level [%s] is invalid, leaving default", sub.DebugLevel)
			continue
		}
		logger.SetLogLevel(level)
	}
}

// userManagerAdapter bridges enbuser.Registry's *enbuser.User-returning
// lookups to gw.UserManager's gw.Bearer-returning interface, so the
// gateway never depends on the concrete enbuser types.
type userManagerAdapter struct {
	registry *enbuser.Registry
}

func (a userManagerAdapter) BearerByIPv4(ip uint32) (gw.Bearer, bool) {
	u, ok := a.registry.UserByIPv4(ip)
	if !ok {
		return nil, false
	}
	return u.DRB1, true
}

func run(cfg *factory.Configuration) error {
	if cfg == nil {
		return fmt.Errorf("configuration section missing")
	}

	startIP := net.ParseIP(cfg.StartIPAddress)
	if startIP == nil {
		return fmt.Errorf("invalid startIpAddress %q", cfg.StartIPAddress)
	}
	maskIP := net.ParseIP(cfg.Netmask)
	if maskIP == nil || maskIP.To4() == nil {
		return fmt.Errorf("invalid netmask %q", cfg.Netmask)
	}

	users := enbuser.NewRegistry()
	toPdcp := bus.NewQueue()
	toGw := bus.NewQueue()
	tickQueue := bus.NewQueue()

	gateway := gw.New(gw.Config{
		TunDeviceName:  cfg.TunDeviceName,
		StartIPAddress: startIP,
		Netmask:        net.IPMask(maskIP.To4()),
	}, userManagerAdapter{registry: users}, toPdcp)

	timerMgr := timer.NewManager(cfg.TickIntervalMs)
	tickQueue.AttachRx(func(msg bus.Message) {
		if !bus.Accepts(bus.LayerTimerMgr, msg.DestLayer) || msg.Type != bus.TimerTick {
			return
		}
		timerMgr.HandleTick()
	})

	if err := gateway.Start(toGw); err != nil {
		logger.InitLog.Errorf("gateway start failed: %v", err)
		return err
	}
	logger.InitLog.Infoln("gateway running")

	stopTicker := startTicker(cfg.TickIntervalMs, tickQueue)
	defer stopTicker()

	logger.InitLog.Infoln("fdd-enb-gw running")

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	<-signalCh

	logger.InitLog.Infoln("shutting down")
	gateway.Stop()
	return nil
}

// startTicker posts a TimerTick message every tickMs onto q until the
// returned stop function is called.
func startTicker(tickMs uint32, q *bus.Queue) (stop func()) {
	if tickMs == 0 {
		tickMs = 1
	}
	ticker := time.NewTicker(time.Duration(tickMs) * time.Millisecond)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				q.Send(bus.Message{Type: bus.TimerTick, DestLayer: bus.LayerTimerMgr})
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
