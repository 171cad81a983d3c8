package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sdn-slicing/slice_console/core/model"
	"github.com/sdn-slicing/slice_console/ctrl_console"
	"github.com/sirupsen/logrus"
)

func main() {
	var cfgFp string
	var controllerAddr string
	var logLevel string

	flag.StringVar(&cfgFp, "cfg", "", "Console configuration file path")
	flag.StringVar(&controllerAddr, "controller", "", "Slicing controller address (overrides controller.address)")
	flag.StringVar(&logLevel, "log", "", "Log level (overrides log.level)")
	flag.Parse()

	if cfgFp == "" {
		logrus.Warn("Console configuration file path is empty")
	}
	cfg, err := model.ReadConfigFile(cfgFp)
	if err != nil {
		logrus.Fatal(err)
	}
	if controllerAddr != "" {
		cfg.Controller.Address = controllerAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	cc, err := ctrl_console.NewConsoleController(cfg)
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cc.Run(ctx); err != nil {
		logrus.Fatal(err)
	}
}
