package slugs

import "testing"

func TestSlug(testContext *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{input: "Intro to ML!!", expected: "intro-to-ml"},
		{input: "  --Foo_Bar--  ", expected: "foo-bar"},
		{input: "PyTorch  Basics", expected: "pytorch-basics"},
		{input: "C++ & CUDA", expected: "c-cuda"},
		{input: "already-a-slug", expected: "already-a-slug"},
		{input: "!!!", expected: ""},
	}
	for _, tc := range cases {
		if got := Slug(tc.input); got != tc.expected {
			testContext.Fatalf("Slug(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestSlugIsDeterministic(testContext *testing.T) {
	first := Slug("Linear Algebra 101")
	second := Slug("Linear Algebra 101")
	if first != second {
		testContext.Fatalf("expected identical slugs, got %q and %q", first, second)
	}
}

func TestUniqueID(testContext *testing.T) {
	if got := UniqueID("Matrix Multiply", ""); got != "matrix-multiply" {
		testContext.Fatalf("unexpected id without suffix: %q", got)
	}
	if got := UniqueID("Matrix Multiply", "1700000000000"); got != "matrix-multiply-1700000000000" {
		testContext.Fatalf("unexpected id with suffix: %q", got)
	}
}
