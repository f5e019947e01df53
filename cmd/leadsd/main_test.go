package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	t.Setenv("APP_VERSION", "1.2.3")
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != "1.2.3" {
		t.Fatalf("got %q", out)
	}
}

func TestMigrate(t *testing.T) {
	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func TestNextID(t *testing.T) {
	out, err := run(t, "next-id", "Invoices", "--width", "4", "-n", "3")
	if err != nil {
		t.Fatalf("next-id: %v", err)
	}
	got := strings.Fields(out)
	want := []string{"0001", "0002", "0003"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("ids=%v want %v", got, want)
	}
}

func TestNextID_BadAlphabet(t *testing.T) {
	if _, err := run(t, "next-id", "jobs", "--alphabet", "hex"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReconcile_EmptyWallet(t *testing.T) {
	out, err := run(t, "reconcile", "nobody")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !strings.Contains(out, "nobody\t0\t0\tok") {
		t.Fatalf("out=%q", out)
	}
}
