package config

import (
	"testing"
	"time"
)

func TestStringFallback(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "value")
	if got := String("CFG_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("String = %q", got)
	}
	if got := String("CFG_TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("String fallback = %q", got)
	}
}

func TestRequiredString(t *testing.T) {
	t.Setenv("CFG_TEST_REQ", "present")
	if _, err := RequiredString("CFG_TEST_REQ"); err != nil {
		t.Fatalf("RequiredString: %v", err)
	}
	if _, err := RequiredString("CFG_TEST_REQ_MISSING"); err == nil {
		t.Fatal("expected error for missing required var")
	}
}

func TestIntAndBool(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "42")
	if got := Int("CFG_TEST_INT", 7); got != 42 {
		t.Fatalf("Int = %d", got)
	}
	t.Setenv("CFG_TEST_INT_BAD", "forty")
	if got := Int("CFG_TEST_INT_BAD", 7); got != 7 {
		t.Fatalf("Int with bad value = %d, want fallback", got)
	}
	t.Setenv("CFG_TEST_BOOL", "true")
	if !Bool("CFG_TEST_BOOL", false) {
		t.Fatal("Bool = false, want true")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("CFG_TEST_DUR", "90s")
	if got := Duration("CFG_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Fatalf("Duration = %s", got)
	}
	if got := Duration("CFG_TEST_DUR_MISSING", time.Minute); got != time.Minute {
		t.Fatalf("Duration fallback = %s", got)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("CFG_TEST_PORT", "8080")
	p, err := Port("CFG_TEST_PORT", "9090")
	if err != nil || p != "8080" {
		t.Fatalf("Port = %q, %v", p, err)
	}
	t.Setenv("CFG_TEST_PORT_BAD", "http")
	if _, err := Port("CFG_TEST_PORT_BAD", "9090"); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}
