package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"goa.design/clue/log"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/oas2ts/internal/backbone"
	"github.com/mark3labs/oas2ts/internal/barrel"
	"github.com/mark3labs/oas2ts/internal/client"
	"github.com/mark3labs/oas2ts/internal/emitter/tsemitter"
	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/pipeline"
	"github.com/mark3labs/oas2ts/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string
	Out         string
	ClientFile  string
	IncludeTags []string
	ExcludeTags []string
	Methods     []string
	Paths       []string
	Barrel      bool
	Strict      bool
	ConfigPath  string
	DryRun      bool
	Force       bool
	Verbose     bool
}

const defaultOutDir = "generated"

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Out: defaultOutDir, ClientFile: pipeline.DefaultClientFile, Barrel: true}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate TypeScript endpoint modules from an OpenAPI/Swagger document",
		Long: "Generate one TypeScript module per tag, with one async function per operation, " +
			"plus entity modules, the transport helper and a barrel module. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  oas2ts generate --input openapi.yaml --out ./frontend/generated
  oas2ts --config oas2ts.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("out", "", "Output directory (defaults to ./generated)")
	flags.String("client-file", "", "Base name of the transport helper module (defaults to connect-client.default)")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include operations with these HTTP methods")
	flags.StringSlice("paths", nil, "Only include operations whose path matches one of these regular expressions")
	flags.Bool("barrel", true, "Generate the endpoints.ts barrel module")
	flags.Bool("strict", false, "Fail on any validation error in the input document")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":       &cfg.Input,
		"out":         &cfg.Out,
		"client-file": &cfg.ClientFile,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}
	lists := map[string]*[]string{
		"include-tags": &cfg.IncludeTags,
		"exclude-tags": &cfg.ExcludeTags,
		"methods":      &cfg.Methods,
		"paths":        &cfg.Paths,
	}
	for name, dst := range lists {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeTags(value)
	}
	bools := map[string]*bool{
		"barrel":  &cfg.Barrel,
		"strict":  &cfg.Strict,
		"dry-run": &cfg.DryRun,
		"force":   &cfg.Force,
		"verbose": &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = defaultOutDir
	}
	c.ClientFile = strings.TrimSuffix(strings.TrimSpace(c.ClientFile), ".ts")
	if c.ClientFile == "" {
		c.ClientFile = pipeline.DefaultClientFile
	}
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	methods := sanitizeTags(c.Methods)
	for i, m := range methods {
		methods[i] = strings.ToLower(m)
	}
	c.Methods = methods
	c.Paths = sanitizeTags(c.Paths)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}

	for _, m := range c.Methods {
		if _, ok := spec.ParseMethod(m); !ok {
			return usageErrorf("generate: unsupported --methods value %q", m)
		}
	}

	for _, p := range c.Paths {
		if _, err := regexp.Compile(p); err != nil {
			return usageErrorf("generate: invalid --paths pattern %q: %v", p, err)
		}
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return usageErrorf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", "))
	}

	return nil
}

// loggingContext returns ctx carrying a terminal logger on stderr.
func loggingContext(ctx context.Context, verbose bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = log.Context(ctx, log.WithFormat(log.FormatTerminal), log.WithOutput(os.Stderr))
	if verbose {
		ctx = log.Context(ctx, log.WithDebug())
	}
	return ctx
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	ctx = loggingContext(ctx, cfg.Verbose)

	// 1) Load the spec (file or http/https URL) with conversion from v2
	doc, err := spec.Load(ctx, cfg.Input, spec.WithStrict(cfg.Strict))
	if err != nil {
		return mapSpecError(err)
	}

	// 2) Group operations by tag
	methods := make([]spec.HttpMethod, 0, len(cfg.Methods))
	for _, m := range cfg.Methods {
		hm, _ := spec.ParseMethod(m)
		methods = append(methods, hm)
	}
	cat, err := spec.BuildCatalog(ctx, doc,
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
		spec.WithMethods(methods),
		spec.WithPathPatterns(cfg.Paths),
	)
	if err != nil {
		return mapGenerateError(err)
	}

	// 3) Synthesize every module; nothing is written unless all plugins succeed
	st := pipeline.NewStorage(doc, cat, cfg.Out, cfg.ClientFile)
	plugins := []pipeline.Plugin{backbone.Plugin{}, client.Plugin{}}
	if cfg.Barrel {
		plugins = append(plugins, barrel.Plugin{})
	}
	if err := pipeline.Run(ctx, st, plugins...); err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "generation failed"})
		return mapGenerateError(err)
	}
	printDiagnostics(st.Diagnostics.All())

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}

	// 4) Write the files
	res, err := tsemitter.Emit(ctx, st.Sources(), tsemitter.Options{
		OutDir: cfg.Out,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	paths := make([]string, 0, len(res.Planned))
	for _, p := range res.Planned {
		paths = append(paths, p.RelPath)
	}
	if cfg.DryRun {
		printPlan(absOut, len(res.Planned), paths)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Generated %d files in %s (%d operations)\n", len(paths), absOut, cat.OperationCount())
	return nil
}

// mapSpecError turns structured loader errors into friendly usage errors.
func mapSpecError(err error) error {
	var se *spec.SpecError
	if errors.As(err, &se) {
		msg := fmt.Sprintf("spec: %s", se.Message)
		if se.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
		}
		if se.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
		}
		return newUsageError(msg)
	}
	return err
}

// mapGenerateError adds the document pointer of generator errors.
func mapGenerateError(err error) error {
	var ge *generr.Error
	if !errors.As(err, &ge) {
		return err
	}
	msg := fmt.Sprintf("generate: %v\nCode: %s", err, ge.Code)
	if ge.Pointer != "" && !strings.Contains(msg, ge.Pointer) {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, ge.Pointer)
	}
	return newUsageError(msg)
}

func printDiagnostics(diags []generr.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(os.Stdout, "%d warning(s):\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(os.Stdout, "- [%s] %s (at %s)\n", d.Code, d.Message, d.Pointer)
	}
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return usageErrorf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg)
	}
	return err
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return usageErrorf("read config file %q: %v", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return usageErrorf("parse config file %q: %v", path, err)
	}

	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "input":
			cfg.Input, err = valueAsString(value)
		case "out":
			cfg.Out, err = valueAsString(value)
		case "clientfile":
			cfg.ClientFile, err = valueAsString(value)
		case "includetags":
			cfg.IncludeTags, err = valueAsStringSlice(value)
		case "excludetags":
			cfg.ExcludeTags, err = valueAsStringSlice(value)
		case "methods":
			cfg.Methods, err = valueAsStringSlice(value)
		case "paths":
			cfg.Paths, err = valueAsStringSlice(value)
		case "barrel":
			cfg.Barrel, err = valueAsBool(value)
		case "strict":
			cfg.Strict, err = valueAsBool(value)
		case "dryrun":
			cfg.DryRun, err = valueAsBool(value)
		case "force":
			cfg.Force, err = valueAsBool(value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(value)
		default:
			return usageErrorf("config file %q: unknown field %q", path, key)
		}
		if err != nil {
			return usageErrorf("config field %q: %v", key, err)
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
