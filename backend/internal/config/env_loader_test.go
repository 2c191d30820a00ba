package config

import (
	"os"
	"path/filepath"
	"testing"
)

// resetEnvFiles 清空进程内的加载状态，测试结束后再清空一次。
func resetEnvFiles(t *testing.T) {
	t.Helper()
	DisableEnvFilesForTest()()
	t.Cleanup(func() { DisableEnvFilesForTest()() })
}

func TestLoadEnvFiles_LocalOverridesBase(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "backend", "cmd")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("PORTFOLIO_A=base\nPORTFOLIO_B=base\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "backend", ".env.local"), []byte("PORTFOLIO_B=local\n"), 0o644); err != nil {
		t.Fatalf("write .env.local: %v", err)
	}

	t.Chdir(sub)
	t.Setenv("CONFIG_SKIP_ENV_LOAD", "")
	t.Setenv("PORTFOLIO_A", "process")
	t.Setenv("PORTFOLIO_B", "")
	resetEnvFiles(t)

	paths := LoadEnvFiles()
	if len(paths) != 2 {
		t.Fatalf("expected both env files, got %v", paths)
	}
	if got := os.Getenv("PORTFOLIO_A"); got != "base" {
		t.Fatalf("env file must override process env, got %q", got)
	}
	if got := os.Getenv("PORTFOLIO_B"); got != "local" {
		t.Fatalf(".env.local must win over .env, got %q", got)
	}

	// 第二次调用不会重新读取。
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("PORTFOLIO_A=changed\n"), 0o644); err != nil {
		t.Fatalf("rewrite .env: %v", err)
	}
	LoadEnvFiles()
	if got := os.Getenv("PORTFOLIO_A"); got != "base" {
		t.Fatalf("expected single load per process, got %q", got)
	}
}

func TestLoadEnvFiles_SkipFlag(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORTFOLIO_SKIP=loaded\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("PORTFOLIO_SKIP", "")
	t.Setenv("CONFIG_SKIP_ENV_LOAD", "1")
	resetEnvFiles(t)

	if paths := LoadEnvFiles(); paths != nil {
		t.Fatalf("expected no env files, got %v", paths)
	}
	if got := os.Getenv("PORTFOLIO_SKIP"); got != "" {
		t.Fatalf("expected env untouched, got %q", got)
	}
}

func TestLookupUpwards_IgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", ".env"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := filepath.Join(root, ".env")
	if err := os.WriteFile(want, []byte("X=1\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if got := lookupUpwards(filepath.Join(root, "a"), ".env"); got != want {
		t.Fatalf("expected %s, got %q", want, got)
	}
}
