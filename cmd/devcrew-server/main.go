// Command devcrew-server serves the developer crew as a web form and JSON API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/hupe1980/devcrew/assistant"
	"github.com/hupe1980/devcrew/config"
	"github.com/hupe1980/devcrew/crew"
	"github.com/hupe1980/devcrew/logging"
	"github.com/hupe1980/devcrew/runner"
	"github.com/hupe1980/devcrew/web"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(&logging.Config{Level: level, Format: cfg.Log.Format, Output: os.Stderr})

	if level != logging.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llm, err := crew.NewModel(ctx, cfg)
	if err != nil {
		logger.Error("model.init.failed", "error", err.Error())
		os.Exit(1)
	}

	reg := crew.New(llm, func(o *crew.Options) {
		o.EnableStreaming = cfg.Streaming
	})
	if err := reg.Validate(); err != nil {
		logger.Error("crew.invalid", "error", err.Error())
		os.Exit(1)
	}

	r := runner.New(reg.Root(), func(o *runner.Options) {
		o.MaxModelCalls = cfg.MaxModelCalls
		o.Timeout = cfg.Timeout.Duration
		o.Logger = logger.WithComponent("runner")
	})

	a := assistant.New(r, func(o *assistant.Options) {
		o.Logger = logger.WithComponent("assistant")
	})

	srv, err := web.New(a, func(o *web.Options) {
		o.AllowOrigins = cfg.Server.AllowOrigins
		o.Examples = crew.ExamplePrompts
		o.Topology = reg.Describe()
		o.Logger = logger.WithComponent("http")
	})
	if err != nil {
		logger.Error("web.init.failed", "error", err.Error())
		os.Exit(1)
	}

	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		logger.Error("http.failed", "error", err.Error())
		os.Exit(1)
	}

	logger.Info("server stopped")
}
