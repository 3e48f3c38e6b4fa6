package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/docschema/internal/config"
	"github.com/usestring/docschema/internal/ingest"
	"github.com/usestring/docschema/internal/logging"
	"github.com/usestring/docschema/pkg/decode"
	"github.com/usestring/docschema/pkg/encode"
	"github.com/usestring/docschema/pkg/schema"
)

// Output formats of the infer command.
const (
	outputJSON       = "json"
	outputJSONSchema = "jsonschema"
	outputSummary    = "summary"
)

// maxSkippedListed bounds the skipped ordinals printed per source.
const maxSkippedListed = 10

type inferFlags struct {
	format         string
	selector       string
	sampleSize     int
	traverseArrays bool
	output         string
	canonical      bool
	indent         string
	maxSamples     int
	workers        int
	skipInvalid    bool
	compact        bool
}

func newInferCmd(g *globalFlags) *cobra.Command {
	var f inferFlags

	cmd := &cobra.Command{
		Use:   "infer [files...|-]",
		Short: "Infer the schema of documents read from files or stdin",
		Long: `Infer reads every document from the given files ("-" or no arguments
reads stdin) and prints the inferred schema. Files are processed
concurrently; the result equals reading them one after the other.

The format is detected from the file extension and content unless --format
is given. Streams may hold many documents: newline-delimited or
pretty-printed JSON, "---" separated YAML, or concatenated BSON.`,
		Example: `  docschema infer users.ndjson
  mongoexport -c orders | docschema infer --select '.items[]' --output summary
  docschema infer --format bson dump/*.bson --output jsonschema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			g.apply(cfg)
			f.apply(cmd, cfg)

			logCfg := cfg.LoggingConfig()
			logCfg.Writer = cmd.ErrOrStderr()
			cleanup, err := logging.Setup(logCfg)
			if err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			defer cleanup()

			return runInfer(cmd, args, cfg, &f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "", "Input format: extjson, json, yaml, bson (default: detect)")
	fl.StringVarP(&f.selector, "select", "s", "", "jq expression selecting the documents to ingest, e.g. '.items[]'")
	fl.IntVar(&f.sampleSize, "sample-size", schema.DefaultSampleSize, "Distinct sample values kept per field type")
	fl.BoolVar(&f.traverseArrays, "traverse-arrays", false, "Record fields of documents nested in arrays")
	fl.StringVarP(&f.output, "output", "o", outputJSON, "Output: json, jsonschema, summary")
	fl.BoolVar(&f.canonical, "canonical", false, "Render sample values as canonical Extended JSON")
	fl.StringVar(&f.indent, "indent", "  ", "JSON indentation (empty for a single line)")
	fl.IntVar(&f.maxSamples, "max-samples", 0, "Sample values printed per type (0 = all kept)")
	fl.BoolVar(&f.compact, "compact", false, "Truncate long sample strings and arrays")
	fl.IntVarP(&f.workers, "workers", "w", config.DefaultIngestWorkersValue, "Files decoded concurrently")
	fl.BoolVar(&f.skipInvalid, "skip-invalid", false, "Skip documents that fail to decode instead of failing")

	return cmd
}

// apply overrides cfg with the flags that were set explicitly.
func (f *inferFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("sample-size") {
		cfg.SampleSize = f.sampleSize
	}
	if fl.Changed("traverse-arrays") {
		cfg.TraverseArrays = f.traverseArrays
	}
	if fl.Changed("workers") {
		cfg.IngestWorkers = f.workers
	}
}

func runInfer(cmd *cobra.Command, args []string, cfg *config.Config, f *inferFlags) error {
	var format decode.Format
	if f.format != "" {
		var err error
		if format, err = decode.ParseFormat(f.format); err != nil {
			return err
		}
	}

	switch f.output {
	case outputJSON, outputJSONSchema, outputSummary:
	default:
		return fmt.Errorf("unknown output %q: expected json, jsonschema or summary", f.output)
	}

	opts := ingest.Options{
		Workers:       cfg.IngestWorkers,
		SkipInvalid:   f.skipInvalid,
		ModelOptions:  cfg.ModelOptions(),
		DecodeOptions: cfg.DecodeOptions(),
	}
	if f.selector != "" {
		sel, err := decode.NewSelector(f.selector)
		if err != nil {
			return err
		}
		opts.Selector = sel
	}

	sources := ingest.SourcesFromArgs(args, cmd.InOrStdin(), format)
	res, err := ingest.Run(cmd.Context(), sources, opts)
	if err != nil {
		return err
	}
	for _, st := range res.Sources {
		if !st.Skipped.IsEmpty() {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: skipped %d invalid documents: %s\n",
				st.Name, st.Skipped.GetCardinality(), ingest.DescribeSkipped(st.Skipped, maxSkippedListed))
		}
	}

	snap, err := res.Model.Snapshot()
	if errors.Is(err, schema.ErrEmptyModel) {
		return fmt.Errorf("no documents found in input")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch f.output {
	case outputSummary:
		return encode.Summary(out, snap)
	case outputJSONSchema:
		var data []byte
		if f.indent != "" {
			data, err = json.MarshalIndent(encode.JSONSchema(snap), "", f.indent)
		} else {
			data, err = json.Marshal(encode.JSONSchema(snap))
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	default:
		viewOpts := encode.Options{
			Canonical:  f.canonical,
			MaxSamples: f.maxSamples,
			Indent:     f.indent,
		}
		if f.compact {
			viewOpts.Compact = cfg.CompactOptions()
		}
		data, err := encode.MarshalJSON(snap, viewOpts)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
}
