// Command formengine is the reference CLI for the form engine: it
// decodes a declarative journey document, validates it against the
// generated schema, compiles one step's artefact, and (for `eval`) drives
// one request through it — the same three operations a host application
// wires into its own request handler, exposed directly for authoring and
// debugging. `debug` additionally steps through one step's relevant
// nodes interactively.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/config"
	"github.com/ormasoftchile/formengine/pkg/decl"
	"github.com/ormasoftchile/formengine/pkg/evaluator"
	"github.com/ormasoftchile/formengine/pkg/formhost"
	"github.com/ormasoftchile/formengine/pkg/telemetry"
	"github.com/ormasoftchile/formengine/pkg/thunk"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "formengine",
	Short: "Declarative multi-step form engine",
	Long:  "formengine — compiles declarative journey/step/block YAML into IR, and evaluates one step of it per request.",
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [journey.yaml]",
	Short: "Validate a journey YAML document against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	doc, err := formhost.LoadDoc(args[0])
	if err != nil {
		return err
	}

	errs := decl.Validate(doc)
	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(errs))
		for i, e := range errs {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
			}
		}
		return fmt.Errorf("validation failed with %d error(s)", len(errs))
	}

	fmt.Printf("✓ %s is valid (%d steps)\n", args[0], formhost.CountSteps(doc))
	return nil
}

// --- compile ---

var compileStepPath string

var compileCmd = &cobra.Command{
	Use:   "compile [journey.yaml]",
	Short: "Compile one step of a journey into its IR artefact",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	step, _, stepPath, err := formhost.CompileJourneyStep(args[0], compileStepPath)
	if err != nil {
		return err
	}
	fmt.Printf("✓ compiled step %q\n", stepPath)
	fmt.Printf("  nodes:    %d\n", step.Registry.Size())
	fmt.Printf("  handlers: %d\n", len(step.Handlers.All()))
	return nil
}

// --- eval ---

var (
	evalStepPath string
	evalMethod   string
	evalPost     []string
	evalQuery    []string
	evalParams   []string
	evalTrace    string
	evalConfig   string
)

var evalCmd = &cobra.Command{
	Use:   "eval [journey.yaml]",
	Short: "Evaluate one request against a compiled step",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func runEval(cmd *cobra.Command, args []string) error {
	step, funcs, stepPath, err := formhost.CompileJourneyStep(args[0], evalStepPath)
	if err != nil {
		return err
	}

	post, err := formhost.ParseKV(evalPost)
	if err != nil {
		return fmt.Errorf("--post: %w", err)
	}
	query, err := formhost.ParseKV(evalQuery)
	if err != nil {
		return fmt.Errorf("--query: %w", err)
	}
	params, err := formhost.ParseKV(evalParams)
	if err != nil {
		return fmt.Errorf("--param: %w", err)
	}

	tracePath := evalTrace
	if evalConfig != "" {
		cfg, err := config.LoadFile(evalConfig)
		if err != nil {
			return fmt.Errorf("load engine config: %w", err)
		}
		if tracePath == "" && cfg.Trace.Enabled {
			tracePath = cfg.Trace.Path
		}
	}

	var trace *telemetry.Writer
	if tracePath != "" {
		trace, err = telemetry.NewFileWriter(tracePath, stepPath)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
	}

	answers := answerhistory.New()
	session := evaluator.NewSession(nil, answers, params, query)
	ev := evaluator.New(step, funcs, session)
	if trace != nil {
		ev.SetTrace(trace)
	}

	ectx := ev.CreateContext(thunk.Request{
		Method: strings.ToUpper(evalMethod),
		Post:   post,
		Query:  query,
		Params: params,
	}, map[string]any{}, answers)

	result := ev.Evaluate(ectx)
	if result.Error != nil {
		fmt.Fprintf(os.Stderr, "evaluation error [%s]: %s\n", result.Error.Kind, result.Error.Message)
		return fmt.Errorf("evaluation failed")
	}

	out, err := json.MarshalIndent(result.Value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// --- debug ---

var debugStepPath string

var debugCmd = &cobra.Command{
	Use:   "debug [journey.yaml]",
	Short: "Step through one step's relevant nodes interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebug,
}

func runDebug(cmd *cobra.Command, args []string) error {
	step, funcs, _, err := formhost.CompileJourneyStep(args[0], debugStepPath)
	if err != nil {
		return err
	}
	answers := answerhistory.New()
	session := evaluator.NewSession(nil, answers, map[string]any{}, map[string]any{})
	ev := evaluator.New(step, funcs, session)
	dbg := formhost.NewDebuggerSession(step, ev, answers)
	return dbg.Run()
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the generated journey JSON Schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := decl.GenerateJSONSchema()
		if err != nil {
			return fmt.Errorf("generate schema: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Engine configuration (formengine.yaml) utilities",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [formengine.yaml]",
	Short: "Validate an engine configuration document against its schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(args[0])
		if err != nil {
			return err
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "  ✗ %s\n", e.Error())
			}
			return fmt.Errorf("%s failed schema validation: %d error(s)", args[0], len(errs))
		}
		fmt.Printf("✓ %s is valid (%d function module(s))\n", args[0], len(cfg.Functions.Modules))
		return nil
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the generated engine configuration JSON Schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.GenerateJSONSchema()
		if err != nil {
			return fmt.Errorf("generate schema: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("formengine %s\n", version)
	},
}

func init() {
	compileCmd.Flags().StringVar(&compileStepPath, "step", "", "Path of the step to compile (defaults to the journey's first step)")

	evalCmd.Flags().StringVar(&evalStepPath, "step", "", "Path of the step to evaluate (defaults to the journey's first step)")
	evalCmd.Flags().StringVar(&evalMethod, "method", "GET", "Request method: GET or POST")
	evalCmd.Flags().StringArrayVar(&evalPost, "post", nil, "Set a POST field (key=value), repeatable")
	evalCmd.Flags().StringArrayVar(&evalQuery, "query", nil, "Set a query parameter (key=value), repeatable")
	evalCmd.Flags().StringArrayVar(&evalParams, "param", nil, "Set a route parameter (key=value), repeatable")
	evalCmd.Flags().StringVar(&evalTrace, "trace", "", "Write JSONL telemetry events to this file")
	evalCmd.Flags().StringVar(&evalConfig, "config", "", "Path to an engine configuration document (formengine.yaml)")

	debugCmd.Flags().StringVar(&debugStepPath, "step", "", "Path of the step to debug (defaults to the journey's first step)")

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSchemaCmd)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
