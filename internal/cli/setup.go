package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/needle/internal/client"
	"github.com/rshade/needle/internal/config"
	"github.com/rshade/needle/internal/logging"
	"github.com/rshade/needle/pkg/version"
)

// StepStatus is the outcome of one setup step.
type StepStatus int

// Step outcomes.
const (
	StepSuccess StepStatus = iota
	StepWarning
	StepSkipped
	StepError
)

// statusMarkers holds the {interactive, plain} marker per status.
//
//nolint:gochecknoglobals // Fixed lookup table.
var statusMarkers = map[StepStatus][2]string{
	StepSuccess: {"\u2713", "[OK]"},
	StepWarning: {"!", "[WARN]"},
	StepSkipped: {"-", "[SKIP]"},
	StepError:   {"\u2717", "[ERR]"},
}

// StepResult is one printed line of setup output. A Critical step that
// ends in StepError fails the command.
type StepResult struct {
	Name     string
	Status   StepStatus
	Message  string
	Critical bool
	Err      error
}

// SetupOptions holds the setup flags.
type SetupOptions struct {
	SkipServiceCheck bool
	NonInteractive   bool
}

// SetupResult collects every step and the aggregate outcome.
type SetupResult struct {
	Steps       []StepResult
	HasErrors   bool
	HasWarnings bool
}

func (r *SetupResult) add(s StepResult) {
	r.Steps = append(r.Steps, s)
	r.HasErrors = r.HasErrors || (s.Status == StepError && s.Critical)
	r.HasWarnings = r.HasWarnings || s.Status == StepWarning
}

// dirPermBase is the permission mode for the config, cache and log directories.
const dirPermBase = 0o700

const setupServiceTimeout = 5 * time.Second

func formatStatus(status StepStatus, nonInteractive bool) string {
	markers, ok := statusMarkers[status]
	switch {
	case !ok && nonInteractive:
		return "[??]"
	case !ok:
		return "?"
	case nonInteractive:
		return markers[1]
	default:
		return markers[0]
	}
}

// NewSetupCmd creates the top-level setup command that prepares a first run.
func NewSetupCmd() *cobra.Command {
	var opts SetupOptions

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Prepare directories, configuration and the service connection",
		Long: `Creates the needle config, cache and log directories, writes a default
configuration file if none exists and checks that the search service answers.

Safe to run repeatedly: existing directories and configuration are kept.`,
		Example: `  # Full setup
  needle setup

  # CI setup without a reachable service
  needle setup --non-interactive --skip-service-check`,
		Annotations: map[string]string{annotationTolerateConfig: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false,
		"Disable TTY-dependent output (status symbols, color)")
	cmd.Flags().BoolVar(&opts.SkipServiceCheck, "skip-service-check", false,
		"Skip contacting the search service")

	return cmd
}

// runSetup executes every step and keeps going after failures. Only a
// failed critical step makes the command fail.
func runSetup(cmd *cobra.Command, opts *SetupOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.FromContext(ctx)

	if !opts.NonInteractive && !term.IsTerminal(int(os.Stdin.Fd())) {
		opts.NonInteractive = true
	}

	cfg, err := configFromContext(ctx)
	if err != nil {
		cfg = config.Default()
	}

	result := &SetupResult{}
	record := func(steps ...StepResult) {
		for _, step := range steps {
			cmd.Printf("%s %s\n", formatStatus(step.Status, opts.NonInteractive), step.Message)
			result.add(step)
		}
	}

	record(stepDisplayVersion())
	record(stepCreateDirectories()...)
	record(stepInitConfig())
	if opts.SkipServiceCheck {
		record(StepResult{Name: stepService, Status: StepSkipped, Message: "Skipped service check"})
	} else {
		record(stepCheckService(ctx, cfg.Service.Endpoint))
	}

	printSummary(cmd, result)

	if result.HasErrors {
		log.Error().
			Ctx(ctx).
			Str("component", "setup").
			Msg("setup completed with critical errors")
		return errors.New("setup failed: one or more critical steps failed")
	}
	return nil
}

func printSummary(cmd *cobra.Command, result *SetupResult) {
	cmd.Println()
	if result.HasErrors {
		cmd.Println("Setup completed with errors. Review the messages above for remediation steps.")
	} else {
		cmd.Println("Setup complete! Run 'needle search \"your question\"' to get started.")
	}
}

func stepDisplayVersion() StepResult {
	return StepResult{
		Name:    stepVersion,
		Status:  StepSuccess,
		Message: fmt.Sprintf("needle v%s (%s)", version.GetVersion(), runtime.Version()),
	}
}

// Step names.
const (
	stepVersion   = "Version display"
	stepDirectory = "Directory creation"
	stepConfig    = "Config initialization"
	stepService   = "Service check"
)

// stepCreateDirectories ensures the config, cache and log directories exist.
func stepCreateDirectories() []StepResult {
	dirs := []string{
		config.ResolveConfigDir(),
		config.DefaultStorageDir(),
		filepath.Dir(config.DefaultLogPath()),
	}
	results := make([]StepResult, 0, len(dirs))
	for _, dir := range dirs {
		results = append(results, ensureDir(dir))
	}
	return results
}

func ensureDir(dir string) StepResult {
	step := StepResult{Name: stepDirectory, Status: StepSuccess, Critical: true}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		step.Message = "Directory exists: " + dir
		return step
	}
	if err := os.MkdirAll(dir, dirPermBase); err != nil {
		step.Status = StepError
		step.Err = err
		step.Message = fmt.Sprintf("Failed to create %s: %v\n  Try: export %s=/path/to/writable/directory",
			dir, err, config.EnvHome)
		return step
	}
	step.Message = "Created " + dir
	return step
}

// stepInitConfig writes the default config file unless one exists.
func stepInitConfig() StepResult {
	path := config.ConfigPath()
	step := StepResult{Name: stepConfig, Status: StepSuccess, Critical: true}

	if _, err := os.Stat(path); err == nil {
		step.Message = fmt.Sprintf("Config already exists (%s)", path)
		return step
	}
	if err := config.Default().Save(path); err != nil {
		step.Status = StepError
		step.Err = err
		step.Message = fmt.Sprintf("Failed to initialize config: %v", err)
		return step
	}
	step.Message = fmt.Sprintf("Initialized config (%s)", path)
	return step
}

// stepCheckService probes /healthz. An unreachable or incompatible service
// is a warning since the endpoint can be fixed later.
func stepCheckService(ctx context.Context, endpoint string) StepResult {
	ctx, cancel := context.WithTimeout(ctx, setupServiceTimeout)
	defer cancel()

	health, err := client.New(endpoint).Health(ctx)
	if err != nil {
		return StepResult{
			Name:   stepService,
			Status: StepWarning,
			Message: fmt.Sprintf("Search service not reachable at %s\n  Set %s or run 'needle devserver' for local fixtures",
				endpoint, config.EnvEndpoint),
			Err: err,
		}
	}
	if err := client.CheckCompatibility(health.Version); err != nil {
		return StepResult{
			Name:    stepService,
			Status:  StepWarning,
			Message: fmt.Sprintf("Search service at %s: %v", endpoint, err),
			Err:     err,
		}
	}
	return StepResult{
		Name:    stepService,
		Status:  StepSuccess,
		Message: fmt.Sprintf("Search service reachable at %s (%s)", endpoint, health.Status),
	}
}
