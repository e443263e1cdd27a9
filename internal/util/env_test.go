package util

import "testing"

func TestGetEnvInt(t *testing.T) {
	t.Setenv("LINKER_TEST_INT", "12")
	if got := GetEnvInt("LINKER_TEST_INT", 3); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	t.Setenv("LINKER_TEST_INT", "twelve")
	if got := GetEnvInt("LINKER_TEST_INT", 3); got != 3 {
		t.Fatalf("expected default 3 for malformed value, got %d", got)
	}
	if got := GetEnvInt("LINKER_TEST_UNSET", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("LINKER_TEST_BOOL", "true")
	if !GetEnvBool("LINKER_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("LINKER_TEST_BOOL", "yes")
	if GetEnvBool("LINKER_TEST_BOOL", false) {
		t.Fatal("expected default for unrecognised value")
	}
}

func TestGetEnvString_EmptyFallsBack(t *testing.T) {
	t.Setenv("LINKER_TEST_STR", "")
	if got := GetEnvString("LINKER_TEST_STR", "uriindex"); got != "uriindex" {
		t.Fatalf("expected default, got %q", got)
	}
}
