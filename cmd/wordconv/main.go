// Command wordconv converts a vocabulary spreadsheet (data/words.xlsx) or CSV
// file (data/words.csv) into a normalized JSON array written to words.json.
//
// Usage:
//
//	wordconv [-root dir] [-config file] [-v] [-log-format json]
//	         [-metrics-backend none|pushgateway|datadog] [-validate]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"wordconv/internal/config"
	"wordconv/internal/convert"
	"wordconv/internal/logger"
	"wordconv/internal/metrics"
	"wordconv/internal/metrics/datadog"
	"wordconv/internal/metrics/prompush"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole program minus the process exit, so tests can drive it.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wordconv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath        string
		root           string
		verbose        bool
		logFormat      string
		metricsBackend string
		pushGatewayURL string
		dogstatsdAddr  string
		validate       bool
	)
	fs.StringVar(&cfgPath, "config", "", "optional conversion config (JSON, or YAML by .yaml/.yml extension)")
	fs.StringVar(&root, "root", "", "directory holding data/ and receiving words.json (default \".\")")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	fs.StringVar(&logFormat, "log-format", "console", "log encoding: console or json")
	fs.StringVar(&metricsBackend, "metrics-backend", "none", "metrics backend: none, pushgateway or datadog")
	fs.StringVar(&pushGatewayURL, "pushgateway-url", "http://localhost:9091", "Pushgateway base URL")
	fs.StringVar(&dogstatsdAddr, "dogstatsd-addr", "127.0.0.1:8125", "DogStatsD address")
	fs.BoolVar(&validate, "validate", false, "validate the configuration and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "wordconv: unexpected arguments: %v\n", fs.Args())
		return 1
	}

	c := config.Defaults()
	if cfgPath != "" {
		var err error
		if c, err = config.Load(cfgPath); err != nil {
			fmt.Fprintf(stderr, "wordconv: %v\n", err)
			return 1
		}
	}
	if root != "" {
		c.Root = root
	}

	issues := config.ValidateConversion(c)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintln(stderr, "wordconv: configuration is invalid")
		return 1
	}
	if validate {
		fmt.Fprintln(stdout, "configuration is valid")
		return 0
	}

	log, err := logger.New(logFormat, verbose)
	if err != nil {
		fmt.Fprintf(stderr, "wordconv: init logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	if flush := setupMetrics(metricsBackend, c.Job, pushGatewayURL, dogstatsdAddr, log); flush != nil {
		defer flush()
	}

	start := time.Now()
	sum, err := convert.Run(c, log)
	if err != nil {
		log.Error("conversion failed", "err", err)
		fmt.Fprintf(stderr, "wordconv: %v\n", err)
		return 1
	}
	log.Debug("completed", "elapsed", time.Since(start).Truncate(time.Millisecond))

	fmt.Fprintf(stdout, "Wrote %s (%d words)\n", sum.Output, sum.Written)
	return 0
}

// setupMetrics installs the selected backend and returns its flush function.
// A backend that fails to initialize leaves metrics disabled.
func setupMetrics(name, job, pushGatewayURL, dogstatsdAddr string, log *logger.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch name {
	case "", "none":
		log.Debug("metrics: disabled")
		return nil
	case "pushgateway":
		b, err = prompush.NewBackend(job, pushGatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       dogstatsdAddr,
			Namespace:  "wordconv.",
			GlobalTags: []string{"job:" + job},
		})
	default:
		log.Warn("metrics: unknown backend; metrics disabled", "backend", name)
		return nil
	}
	if err != nil {
		log.Warn("metrics: backend init failed; metrics disabled", "backend", name, "err", err)
		return nil
	}

	log.Debug("metrics: enabled", "backend", name)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush failed", "backend", name, "err", err)
		}
	}
}
