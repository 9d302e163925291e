// Command devcrew runs one question through the developer crew and prints
// the final answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hupe1980/devcrew/config"
	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/crew"
	"github.com/hupe1980/devcrew/logging"
	"github.com/hupe1980/devcrew/runner"
)

const defaultQuery = "what is ai agents"

func main() {
	var (
		query      = flag.String("q", defaultQuery, "question to ask the crew")
		configPath = flag.String("config", "", "optional YAML config file")
		topology   = flag.Bool("topology", false, "print the agent topology and exit")
		stream     = flag.Bool("stream", false, "print partial output while the run progresses")
		raw        = flag.Bool("raw", false, "print the answer without markdown rendering")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *stream {
		cfg.Streaming = true
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(&logging.Config{Level: level, Format: cfg.Log.Format, Output: os.Stderr, Component: "devcrew"})

	ctx := context.Background()

	llm, err := crew.NewModel(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	reg := crew.New(llm, func(o *crew.Options) {
		o.EnableStreaming = cfg.Streaming
	})
	if err := reg.Validate(); err != nil {
		log.Fatal(err)
	}

	if *topology {
		fmt.Print(reg.Describe().String())
		return
	}

	r := runner.New(reg.Root(), func(o *runner.Options) {
		o.MaxModelCalls = cfg.MaxModelCalls
		o.Timeout = cfg.Timeout.Duration
		o.Logger = logger.WithComponent("runner")
	})

	if !cfg.Streaming {
		res, err := r.RunSync(ctx, *query)
		if err != nil {
			log.Fatalf("run failed: %v", err)
		}
		fmt.Println(newRenderer(*raw)(res.FinalOutput))
		return
	}

	_, eventsCh, errorsCh, err := r.Run(ctx, *query)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	if err := consumeEvents(eventsCh, errorsCh); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

// consumeEvents prints partial text of the top-level conversation as it
// arrives, separating the output of successive agents after a hand-off, and
// returns the terminal run error, if any. Models that do not
// stream get their final answer printed once the run ends.
func consumeEvents(eventsCh <-chan core.Event, errorsCh <-chan error) error {
	var (
		runErr  error
		printed bool
		final   string
		speaker string
	)
	for eventsCh != nil || errorsCh != nil {
		select {
		case ev, ok := <-eventsCh:
			if !ok {
				eventsCh = nil
				continue
			}
			if ev.Branch != "" || ev.Content == nil {
				continue
			}
			if ev.Partial {
				if printed && ev.Author != speaker {
					fmt.Print("\n\n")
				}
				speaker = ev.Author
				fmt.Print(ev.Content.Text())
				printed = true
			} else if ev.IsFinalResponse() {
				final = ev.Content.Text()
			}
		case err, ok := <-errorsCh:
			if !ok {
				errorsCh = nil
				continue
			}
			if err != nil {
				runErr = err
			}
		}
	}
	if !printed {
		fmt.Print(final)
	}
	fmt.Println()
	return runErr
}
