package cli

import (
	"flag"
	"io"
	"testing"
)

func newTestFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("stakeout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestHelpFlagVariants(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		fs := newTestFlagSet()
		flags := AddHelpVersionFlags(fs, "", "")
		if err := fs.Parse([]string{arg}); err != nil {
			t.Fatalf("parse %s: unexpected error %v", arg, err)
		}
		if !flags.Help {
			t.Fatalf("expected %s to set help", arg)
		}
		if flags.Version {
			t.Fatalf("expected %s to leave version unset", arg)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	fs := newTestFlagSet()
	flags := AddHelpVersionFlags(fs, "", "")
	if err := fs.Parse([]string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !flags.Version {
		t.Fatal("expected --version to set version")
	}
}

func TestVerboseShorthandStaysUnbound(t *testing.T) {
	fs := newTestFlagSet()
	flags := AddHelpVersionFlags(fs, "", "")
	var verbose bool
	fs.BoolVar(&verbose, "v", false, "verbose")
	if err := fs.Parse([]string{"-v"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verbose || flags.Help || flags.Version {
		t.Fatalf("expected -v to mean verbose only, got verbose=%v help=%v version=%v", verbose, flags.Help, flags.Version)
	}
}

func TestNilFlagSetIsSafe(t *testing.T) {
	flags := AddHelpVersionFlags(nil, "", "")
	if flags == nil || flags.Help || flags.Version {
		t.Fatalf("expected zero flags for nil flag set, got %+v", flags)
	}
}
