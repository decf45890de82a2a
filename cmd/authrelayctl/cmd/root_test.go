package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand_Help(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute(--help) = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "authrelayctl") {
		t.Errorf("help output should contain 'authrelayctl', got: %s", output)
	}
	if !strings.Contains(output, "--uninstall") {
		t.Errorf("help output should document --uninstall, got: %s", output)
	}
	if !strings.Contains(output, "AUTHRELAY_") {
		t.Errorf("help output should mention the AUTHRELAY_ parameters, got: %s", output)
	}
}

// resetFlagState clears the help and version flag values, which persist on
// the shared rootCmd between Execute calls.
func resetFlagState(t *testing.T) {
	t.Helper()
	for _, name := range []string{"help", "version"} {
		f := rootCmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := f.Value.Set("false"); err != nil {
			t.Fatalf("reset --%s: %v", name, err)
		}
		f.Changed = false
	}
}

func TestRootCommand_Version(t *testing.T) {
	resetFlagState(t)
	SetVersionInfo("1.2.3", "abc123", "2025-01-01")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute(--version) = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"1.2.3", "abc123", "2025-01-01"} {
		if !strings.Contains(output, want) {
			t.Errorf("version output should contain %q, got: %s", want, output)
		}
	}
}

func TestRootCommand_UnknownFlag(t *testing.T) {
	resetFlagState(t)
	rootCmd.SilenceUsage = true
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--definitely-not-a-flag"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if !strings.Contains(buf.String(), "Usage:") {
		t.Errorf("unknown flag should print usage, got: %s", buf.String())
	}
}

func TestRootCommand_RejectsPositionalArgs(t *testing.T) {
	resetFlagState(t)
	rootCmd.SilenceUsage = true
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"install"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("Execute() = nil, want error for positional argument")
	}
	if !strings.Contains(buf.String(), "Usage:") {
		t.Errorf("positional argument should print usage, got: %s", buf.String())
	}
}

func TestRootCommand_RuntimeErrorOmitsUsage(t *testing.T) {
	// Earlier invocations flip SilenceUsage off on misuse; restore the default.
	resetFlagState(t)
	rootCmd.SilenceUsage = true
	t.Setenv("AUTHRELAY_LISTEN_PORT", "not-a-port")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("Execute() = nil, want parameter resolution error")
	}
	// A well-formed invocation that fails at runtime gets the error alone, not
	// a usage dump.
	if strings.Contains(buf.String(), "Usage:") {
		t.Errorf("runtime failure should not print usage, got: %s", buf.String())
	}
}
