package main

import "testing"

func TestDefaultObjectPath(t *testing.T) {
	cases := map[string]string{
		"hello.asm":    "hello.o",
		"src/hello.asm": "src/hello.o",
		"noext":        "noext.o",
		"dir/nested.s": "dir/nested.o",
	}
	for in, want := range cases {
		if got := defaultObjectPath(in); got != want {
			t.Errorf("defaultObjectPath(%q) = %q, want %q", in, got, want)
		}
	}
}
