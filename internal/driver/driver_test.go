package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompile_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main"+SourceExt, `
		int add(int a, int b) { return a + b; }
		int main() { return add(40, 2); }
	`)

	res, err := Compile(path, Options{NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Ok() {
		for _, d := range res.Bag.Items() {
			t.Logf("%s: %s", d.Code, d.Message)
		}
		t.Fatal("compilation failed")
	}

	for _, label := range []string{"_add:", "_main:", "call _add"} {
		if !strings.Contains(res.Asm, label) {
			t.Errorf("assembly is missing %q", label)
		}
	}
}

func TestCompile_FrontendErrorsStopBeforeLowering(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "bad"+SourceExt, `void f() { break; }`)

	res, err := Compile(path, Options{NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Ok() {
		t.Fatal("broken program compiled")
	}
	if res.IR != nil || res.Asm != "" {
		t.Error("output produced despite front-end errors")
	}
}

func TestCompile_UsingResolvesSiblingModule(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "util"+SourceExt, `int helper(int v) { return v + 1; }`)
	path := writeSource(t, dir, "main"+SourceExt, `
		using util;
		int main() { return helper(1); }
	`)

	res, err := Compile(path, Options{NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Ok() {
		for _, d := range res.Bag.Items() {
			t.Logf("%s: %s", d.Code, d.Message)
		}
		t.Fatal("compilation failed")
	}
	if !strings.Contains(res.Asm, "_helper:") {
		t.Error("re-exported module was not lowered into the unit")
	}
}

func TestCompile_UsingCycleReported(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a"+SourceExt, `using b; void fa() { }`)
	writeSource(t, dir, "b"+SourceExt, `using a; void fb() { }`)

	res, err := Compile(filepath.Join(dir, "a"+SourceExt), Options{NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Ok() {
		t.Fatal("module cycle accepted")
	}
}

func TestCompile_CacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir := t.TempDir()
	path := writeSource(t, dir, "main"+SourceExt, `int main() { return 0; }`)

	first, err := Compile(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !first.Ok() || first.Cached {
		t.Fatal("first compile should run the back-end")
	}

	second, err := Compile(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("second compile should hit the cache")
	}
	if second.Asm != first.Asm {
		t.Error("cached assembly differs")
	}

	// Any input change must miss.
	writeSource(t, dir, "main"+SourceExt, `int main() { return 1; }`)
	third, err := Compile(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached {
		t.Error("stale cache entry served after an edit")
	}
}

func TestCompileAll_IndependentUnits(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	paths = append(paths, writeSource(t, dir, "one"+SourceExt, `int one() { return 1; }`))
	paths = append(paths, writeSource(t, dir, "two"+SourceExt, `int two() { return 2; }`))
	paths = append(paths, writeSource(t, dir, "bad"+SourceExt, `int broken() { return x; }`))

	results, err := CompileAll(context.Background(), paths, Options{NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Ok() || !results[1].Ok() {
		t.Error("healthy units failed")
	}
	if results[2].Ok() {
		t.Error("broken unit reported success")
	}
}
