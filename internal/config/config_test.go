package config

import (
	"testing"

	"github.com/spf13/pflag"

	"imgswap/internal/convert"
)

func newFlags(quality int, recursive bool) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.IntP(FlagQuality, "q", quality, "")
	flags.BoolP(FlagDeleteOriginals, "d", false, "")
	flags.BoolP(FlagRecursive, "r", recursive, "")
	flags.Bool(FlagPlain, false, "")
	flags.String(FlagLogFile, "", "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(95, true), convert.FormatJPEG, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Root != "." || cfg.Quality != 95 || !cfg.Recursive || cfg.DeleteOriginals || cfg.Target != convert.FormatJPEG {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("IMGSWAP_QUALITY", "70")
	t.Setenv("IMGSWAP_DELETE_ORIGINALS", "true")

	cfg, err := Load(newFlags(80, false), convert.FormatWEBP, []string{`"photos "`})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quality != 70 || !cfg.DeleteOriginals || cfg.Root != "photos" {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}

	flags := newFlags(80, false)
	if err := flags.Parse([]string{"--quality", "55"}); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(flags, convert.FormatWEBP, []string{"photos"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quality != 55 {
		t.Fatalf("explicit flag should win over env, got %d", cfg.Quality)
	}
}

func TestLoadRejectsQuality(t *testing.T) {
	for _, q := range []string{"0", "101"} {
		flags := newFlags(80, false)
		if err := flags.Parse([]string{"-q", q}); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(flags, convert.FormatJPEG, nil); err == nil {
			t.Fatalf("quality %s: expected validation error", q)
		}
	}
}
