package templink

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"test/image", "test/image"},
		{"/test/image", "test/image"},
		{"test//image", "test/image"},
		{"./test/image", "test/image"},
		{"test/./image", "test/image"},
		{"a/b/../c", "a/c"}, // 中间的 .. 被 Clean 消化且不越界
		{"  test/image  ", "test/image"},
		{"图片/photo.png", "图片/photo.png"},
	}
	for _, c := range cases {
		got, err := NormalizePath(c.raw)
		if err != nil {
			t.Fatalf("NormalizePath(%q): %v", c.raw, err)
		}
		if got != c.want {
			t.Fatalf("NormalizePath(%q): got %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestNormalizePath_Rejects(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"/",
		"..",
		"../etc/passwd",
		"a/../../b",
		"/../x",
		strings.Repeat("a", 600),
	}
	for _, raw := range cases {
		if _, err := NormalizePath(raw); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("NormalizePath(%q): got %v, want ErrInvalidPath", raw, err)
		}
	}
}

func TestNotFoundError(t *testing.T) {
	err := error(&NotFoundError{Path: "a/b"})
	if !IsNotFound(err) {
		t.Fatal("IsNotFound(NotFoundError) = false")
	}
	if IsNotFound(errors.New("other")) {
		t.Fatal("IsNotFound(other) = true")
	}
	if !strings.Contains(err.Error(), "a/b") {
		t.Fatalf("error must carry path: %v", err)
	}
}

func TestAliasEncode(t *testing.T) {
	a1, err := AliasEncode(1)
	if err != nil {
		t.Fatalf("AliasEncode: %v", err)
	}
	a2, err := AliasEncode(2)
	if err != nil {
		t.Fatalf("AliasEncode: %v", err)
	}
	if a1 == a2 {
		t.Fatalf("aliases collide: %q", a1)
	}
	if len(a1) < 4 {
		t.Fatalf("alias too short: %q", a1)
	}
	// 同一 id 必须稳定
	again, _ := AliasEncode(1)
	if again != a1 {
		t.Fatalf("alias not stable: %q vs %q", again, a1)
	}
}
