/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Command cachedemo shows the LRU cache at work on top of a backing store.
// It replays a short scenario and, with --serve, keeps running the admin HTTP server
// and the periodic expiry sweep until SIGINT or SIGTERM is received.
package main

import (
	"errors"
	"fmt"
	golog "log"
	"os"

	"github.com/spf13/pflag"
)

type cliOpts struct {
	ConfigPath string
	Serve      bool
}

func parseFlags(args []string) (cliOpts, error) {
	var opts cliOpts
	fs := pflag.NewFlagSet("cachedemo", pflag.ContinueOnError)
	fs.StringVarP(&opts.ConfigPath, "config", "c", "", "path to the YAML configuration file")
	fs.BoolVar(&opts.Serve, "serve", false, "serve the admin API and sweep expired entries until a signal is received")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		golog.Fatal(err)
	}
	if err = runApp(opts); err != nil {
		golog.Fatal(err)
	}
}

func runApp(opts cliOpts) error {
	cfg, err := loadAppConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err = a.RunScenario(); err != nil {
		return fmt.Errorf("run scenario: %w", err)
	}
	if !opts.Serve {
		return nil
	}
	return a.Serve()
}
