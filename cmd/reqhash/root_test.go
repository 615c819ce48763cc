package main

import (
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "reqhash <requirements-file>" {
			t.Errorf("expected use 'reqhash <requirements-file>', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()

		for flag, shorthand := range map[string]string{
			"output":          "o",
			"preferred-index": "p",
			"default-index":   "d",
			"algorithm":       "a",
			"timeout":         "t",
			"config":          "c",
		} {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				t.Errorf("expected %s flag", flag)
				continue
			}
			if f.Shorthand != shorthand {
				t.Errorf("%s shorthand = %q, want %q", flag, f.Shorthand, shorthand)
			}
		}

		for _, flag := range []string{"no-download", "cache", "cache-dir", "cache-ttl", "report", "json", "markdown"} {
			if cmd.Flags().Lookup(flag) == nil {
				t.Errorf("expected %s flag", flag)
			}
		}
	})

	t.Run("default index points at PyPI", func(t *testing.T) {
		t.Parallel()
		f := cmd.Flags().Lookup("default-index")
		if f == nil {
			t.Fatal("expected default-index flag")
		}
		if f.DefValue != "https://pypi.org/simple" {
			t.Errorf("default-index default = %q", f.DefValue)
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		hasInit := false
		hasVersion := false
		for _, sub := range cmd.Commands() {
			switch sub.Use {
			case "init":
				hasInit = true
			case "version":
				hasVersion = true
			}
		}
		if !hasInit {
			t.Error("expected init subcommand")
		}
		if !hasVersion {
			t.Error("expected version subcommand")
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestRootCmdRequiresInput tests that the input file argument is mandatory.
func TestRootCmdRequiresInput(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error when no input file is given")
	}
}
