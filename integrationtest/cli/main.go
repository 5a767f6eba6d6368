// Package main provides an interactive CLI for exercising schema-constrained
// generation against a real model, streaming partial JSON as it is built.
//
// Usage:
//
//	go run ./integrationtest/cli -config jsonsmith.yaml
//	go run ./integrationtest/cli -schema schema.json -guided
//
// Requires JSONSMITH_TEST_OPENAI_KEY to be set.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/tmc/langchaingo/llms/openai"
	"gopkg.in/yaml.v3"

	"github.com/rickchristie/jsonsmith"
	"github.com/rickchristie/jsonsmith/oracles"
	"github.com/rickchristie/jsonsmith/schema"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

const defaultSchema = `{
    "type": "object",
    "properties": {
        "name": {"type": "string"},
        "age": {"type": "number"},
        "is_student": {"type": "boolean"},
        "courses": {
            "type": "array",
            "items": {"type": "string"},
            "allowed_empty": true
        }
    }
}`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML config file (see jsonsmith.Config)")
	schemaPath := flag.String("schema", "", "JSON schema file (overrides config)")
	guided := flag.Bool("guided", false, "use guided prompt mode")
	verbose := flag.Bool("verbose", false, "log every oracle call as YAML")
	model := flag.String("model", "gpt-4o-mini", "model name")
	flag.Parse()

	cfg := jsonsmith.DefaultConfig()
	if *configPath != "" {
		loaded, err := jsonsmith.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if *schemaPath != "" {
		data, err := os.ReadFile(*schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		cfg.JSONSchema = string(data)
	}
	if cfg.JSONSchema == "" {
		cfg.JSONSchema = defaultSchema
	}
	if *guided {
		cfg.ManualPrompt = false
	}

	node, err := cfg.Schema()
	if err != nil {
		return err
	}

	apiKey := os.Getenv("JSONSMITH_TEST_OPENAI_KEY")
	if apiKey == "" {
		fmt.Fprintf(os.Stderr,
			"%sWARNING: JSONSMITH_TEST_OPENAI_KEY is not set, calls will fail.%s\n",
			colorYellow, colorReset)
	}
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(*model))
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}
	oracle := oracles.NewLCG(llm)

	// Ctrl+C cancels the in-flight run; the engine returns the partial
	// buffer instead of erroring.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rl, err := readline.New(colorCyan + "prompt> " + colorReset)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Printf("%sSchema:%s\n%s\n", colorDim, colorReset, node.String())
	fmt.Printf("%sEnter an instruction prompt, or 'q' to quit.%s\n", colorDim, colorReset)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "q" || line == "quit" {
			return nil
		}

		session := jsonsmith.NewSession(oracle, node, line).
			WithTemperature(cfg.Temperature).
			WithMaxArrayLength(cfg.MaxArrayLength).
			WithSeed(cfg.Seed)
		if cfg.ManualPrompt {
			session.WithManualPrompt()
		} else {
			session.WithGuidedPrompt()
		}
		if *verbose {
			session.WithHook(yamlLogger{out: os.Stderr})
		}

		if err := streamRun(ctx, session, node); err != nil {
			fmt.Fprintf(os.Stderr, "%s%v%s\n", colorRed, err, colorReset)
		}
	}
}

// streamRun executes one session, redrawing the partial document as
// snapshots arrive, then validates the final output against the schema.
func streamRun(ctx context.Context, session *jsonsmith.Session, node *schema.Node) error {
	stream := session.Run(ctx)

	var lastLines int
	for snapshot := range stream.Snapshots() {
		// Rewind over the previous render before drawing the new one.
		for i := 0; i < lastLines; i++ {
			fmt.Print("\033[A\033[2K")
		}
		fmt.Print(snapshot + "\n")
		lastLines = strings.Count(snapshot, "\n") + 1
	}

	result, err := stream.Result()
	if err != nil {
		return err
	}

	compiled, err := node.Compile()
	if err != nil {
		return err
	}
	if err := compiled.ValidateDocument(result); err != nil {
		fmt.Printf("%svalidation: %v%s\n", colorYellow, err, colorReset)
		return nil
	}
	fmt.Printf("%svalid against schema%s\n", colorGreen, colorReset)
	return nil
}

// yamlLogger logs every oracle call as a YAML block, full content, nothing
// truncated.
type yamlLogger struct {
	out io.Writer
}

func (l yamlLogger) BeforeOracleCall(prompt string, settings jsonsmith.GenerationSettings) {
	l.logYAML(">>> oracle call", map[string]any{
		"prompt": prompt,
		"settings": map[string]any{
			"temperature":    settings.Temperature,
			"max_new_tokens": settings.MaxNewTokens,
			"seed":           settings.Seed,
		},
	})
}

func (l yamlLogger) AfterOracleCall(prompt string, result string, err error) {
	entry := map[string]any{"result": result}
	if err != nil {
		entry["error"] = err.Error()
	}
	l.logYAML("<<< oracle result", entry)
}

func (l yamlLogger) logYAML(header string, v any) {
	fmt.Fprintf(l.out, "%s%s%s\n", colorDim, header, colorReset)
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintf(l.out, "(failed to marshal: %v)\n", err)
		return
	}
	fmt.Fprint(l.out, string(data))
}
