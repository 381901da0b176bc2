// Package main generates the Grafana dashboard and Prometheus rule files for
// listing-tracker.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/listing-tracker/tools/dashgen/dashboards"
	"github.com/donaldgifford/listing-tracker/tools/dashgen/rules"
	"github.com/donaldgifford/listing-tracker/tools/dashgen/validate"
)

const generatedHeader = "# Code generated by dashgen. DO NOT EDIT.\n"

// artifact is one generated file relative to the output directory.
type artifact struct {
	path string
	data []byte
}

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config, validateOnly bool) error {
	artifacts, res, err := generate(cfg)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if !res.Ok() {
		return errors.New("validation failed:\n  " + strings.Join(res.Errors, "\n  "))
	}

	if validateOnly {
		fmt.Println("validation passed")
		return nil
	}

	for _, a := range artifacts {
		path := filepath.Join(cfg.OutputDir, a.path)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, a.data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("dashgen: wrote %s\n", path)
	}
	return nil
}

// generate builds and validates every enabled artifact.
func generate(cfg Config) ([]artifact, validate.Result, error) {
	var (
		artifacts []artifact
		res       validate.Result
	)
	known := knownMetrics()

	if cfg.RulesEnabled {
		recording := rules.RecordingRules()
		alerts := rules.AlertRules()
		merge(&res, validate.Rules(recording, known))
		merge(&res, validate.Rules(alerts, known))

		for _, r := range []struct {
			path string
			cr   rules.PrometheusRule
		}{
			{path: filepath.Join("prometheus", "lt-recording-rules.yaml"), cr: recording},
			{path: filepath.Join("prometheus", "lt-alerts.yaml"), cr: alerts},
		} {
			data, err := yaml.Marshal(r.cr)
			if err != nil {
				return nil, res, fmt.Errorf("marshaling %s: %w", r.path, err)
			}
			artifacts = append(artifacts, artifact{path: r.path, data: append([]byte(generatedHeader), data...)})
		}
	}

	if cfg.DashboardEnabled {
		dash, err := dashboards.BuildOverview().Build()
		if err != nil {
			return nil, res, fmt.Errorf("building overview dashboard: %w", err)
		}
		merge(&res, validate.Dashboard(dash, known))

		data, err := json.MarshalIndent(dash, "", "  ")
		if err != nil {
			return nil, res, fmt.Errorf("marshaling overview dashboard: %w", err)
		}
		artifacts = append(artifacts, artifact{
			path: filepath.Join("grafana", "data", "lt-overview.json"),
			data: append(data, '\n'),
		})
	}

	return artifacts, res, nil
}

func merge(dst *validate.Result, src validate.Result) {
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.Warnings = append(dst.Warnings, src.Warnings...)
}
