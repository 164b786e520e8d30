package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigShow_PrintsYAML(t *testing.T) {
	t.Setenv("CLAIMS_FRAUD_HIGH_AMOUNT", "250000")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "show"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"fraud:", "high_amount: 250000", "hospitals_path:"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "claims ") {
		t.Errorf("unexpected output %q", out.String())
	}
}
