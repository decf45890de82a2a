// Package cmd implements the authrelayctl CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/authrelay/authrelayctl/internal/provision"
)

var (
	paramsFile   string
	runUninstall bool
	assumeYes    bool
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("authrelayctl version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "authrelayctl",
	Short: "authrelayctl provisions the authrelay NTLM relay proxy service",
	Long: "authrelayctl installs the authrelay authentication relay proxy as a systemd\n" +
		"service: it creates the service account, lays out the install tree, copies the\n" +
		"program artifacts, renders the server configuration, registers the unit, log\n" +
		"rotation, and firewall rule, and starts the service. Run with no arguments to\n" +
		"install; pass --uninstall to tear the installation down again.\n\n" +
		"Parameters are taken from AUTHRELAY_* environment variables or an optional\n" +
		"YAML parameter file; every parameter has a default:\n\n" +
		fmt.Sprintf("  AUTHRELAY_USER         service account      (default %s)\n", provision.DefaultUser) +
		fmt.Sprintf("  AUTHRELAY_GROUP        service group        (default %s)\n", provision.DefaultGroup) +
		fmt.Sprintf("  AUTHRELAY_ROOT         install root         (default %s)\n", provision.DefaultRoot) +
		fmt.Sprintf("  AUTHRELAY_SOURCE_DIR   artifact source      (default %s)\n", provision.DefaultSourceDir) +
		fmt.Sprintf("  AUTHRELAY_LISTEN_PORT  listen port          (default %d)\n", provision.DefaultListenPort) +
		fmt.Sprintf("  AUTHRELAY_PROXY_HOST   upstream proxy host  (default %s)\n", provision.DefaultUpstreamHost) +
		fmt.Sprintf("  AUTHRELAY_PROXY_PORT   upstream proxy port  (default %d)\n", provision.DefaultUpstreamPort) +
		fmt.Sprintf("  AUTHRELAY_NT_DOMAIN    NT auth domain       (default %s)\n", provision.DefaultAuthDomain) +
		"\nExamples:\n" +
		"  authrelayctl\n" +
		"  AUTHRELAY_LISTEN_PORT=3128 AUTHRELAY_PROXY_HOST=proxy.corp authrelayctl\n" +
		"  authrelayctl --config params.yaml\n" +
		"  authrelayctl --uninstall --yes",
	// Usage is helpful when the invocation itself is malformed, and noise when
	// a provisioning step fails at runtime. Default to silent; the flag and
	// argument error paths below re-enable it.
	SilenceUsage: true,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.NoArgs(cmd, args); err != nil {
			cmd.SilenceUsage = false
			return err
		}
		return nil
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&paramsFile, "config", "", "optional YAML parameter file")
	rootCmd.Flags().BoolVar(&runUninstall, "uninstall", false, "tear down the authrelay installation")
	rootCmd.Flags().BoolVar(&assumeYes, "yes", false, "answer yes to the uninstall purge confirmation")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("authrelayctl version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		cmd.SilenceUsage = false
		return err
	})
}

func run(cmd *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	params, err := provision.LoadParams(paramsFile)
	if err != nil {
		return fmt.Errorf("authrelayctl: %w", err)
	}

	confirm := provision.TerminalConfirm(os.Stdin, os.Stderr)
	if assumeYes {
		confirm = func(string) bool { return true }
	}

	installer := provision.NewInstaller(params,
		provision.NewSystemdController(),
		provision.NewIdentityManager(),
		provision.DetectFirewall(logger),
		provision.NewPrivilegeChecker(),
		confirm,
		logger,
	)

	if runUninstall {
		if err := installer.Uninstall(); err != nil {
			return fmt.Errorf("authrelayctl uninstall: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "authrelay uninstalled")
		return nil
	}

	if err := installer.Install(); err != nil {
		return fmt.Errorf("authrelayctl install: %w", err)
	}
	provision.Report(cmd.OutOrStdout(), params)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
