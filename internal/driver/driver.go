// Package driver orchestrates the per-file pipeline:
// load → lex/parse → analyze → lower → simplify → validate → emit.
package driver

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cinder/internal/arch"
	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/diagfmt"
	"cinder/internal/ir"
	"cinder/internal/lexer"
	"cinder/internal/lower"
	"cinder/internal/observ"
	"cinder/internal/parser"
	"cinder/internal/sema"
	"cinder/internal/source"
	"cinder/internal/sym"
)

// SourceExt is the file extension of cinder sources.
const SourceExt = ".cn"

type Options struct {
	Arch           *arch.Arch
	MaxDiagnostics int
	Timings        bool
	NoCache        bool
}

func (o Options) withDefaults() Options {
	if o.Arch == nil {
		o.Arch = arch.AMD64()
	}
	if o.MaxDiagnostics <= 0 {
		o.MaxDiagnostics = 100
	}
	return o
}

// Result is the outcome of compiling one root file and its
// re-exports.
type Result struct {
	Path    string
	FileSet *source.FileSet
	Bag     *diag.Bag
	IR      *ir.Ctx
	Asm     string
	Timer   *observ.Timer
	Cached  bool
}

// Ok reports whether compilation produced output.
func (r *Result) Ok() bool {
	return r != nil && !r.Bag.HasErrors() && (r.Asm != "" || r.IR != nil)
}

// RenderDiagnostics formats the result's diagnostics for the
// terminal.
func (r *Result) RenderDiagnostics(w io.Writer, useColor bool) {
	r.Bag.Sort()
	r.Bag.Dedup()
	diagfmt.Render(w, r.Bag, r.FileSet, diagfmt.Options{Color: useColor})
}

// Compile runs the full pipeline for one root file.
func Compile(path string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	res := &Result{
		Path:    path,
		FileSet: source.NewFileSet(),
		Bag:     diag.NewBag(opts.MaxDiagnostics),
		Timer:   observ.NewTimer(),
	}
	reporter := diag.BagReporter{Bag: res.Bag}

	phase := res.Timer.Begin("frontend")
	loader := &moduleLoader{
		fs:       res.FileSet,
		reporter: reporter,
		word:     opts.Arch.WordSize,
		loaded:   make(map[string]*loadedModule),
	}
	root := loader.load(path)
	res.Timer.End(phase, fmt.Sprintf("%d file(s)", len(loader.order)))

	if root == nil || res.Bag.HasErrors() {
		return res, nil
	}

	if !opts.NoCache {
		if cache, err := OpenDiskCache("cinder"); err == nil {
			key := digestFor(loader, opts.Arch)
			var payload DiskPayload
			if ok, err := cache.Get(key, &payload); err == nil && ok && payload.Schema == diskCacheSchemaVersion {
				res.Asm = payload.Asm
				res.Cached = true
				return res, nil
			}
		}
	}

	phase = res.Timer.Begin("lower")
	irctx := ir.NewCtx()
	if err := lower.Lower(root.tree, irctx, opts.Arch); err != nil {
		return res, fmt.Errorf("driver: %s: %w", path, err)
	}
	res.Timer.End(phase, fmt.Sprintf("%d func(s)", len(irctx.Funcs)))

	phase = res.Timer.Begin("simplify")
	for _, f := range irctx.Funcs {
		ir.Simplify(f)
	}
	res.Timer.End(phase, "")

	if err := ir.Validate(irctx); err != nil {
		return res, fmt.Errorf("driver: %s: invalid IR: %w", path, err)
	}
	res.IR = irctx

	phase = res.Timer.Begin("emit")
	var sb strings.Builder
	if err := ir.EmitAsm(&sb, irctx, opts.Arch); err != nil {
		return res, fmt.Errorf("driver: %s: %w", path, err)
	}
	res.Asm = sb.String()
	res.Timer.End(phase, "")

	if !opts.NoCache {
		if cache, err := OpenDiskCache("cinder"); err == nil {
			key := digestFor(loader, opts.Arch)
			_ = cache.Put(key, &DiskPayload{
				Schema: diskCacheSchemaVersion,
				Path:   path,
				Asm:    res.Asm,
			})
		}
	}

	return res, nil
}

type loadedModule struct {
	tree  *ast.Node
	scope *sym.Symbol
	// loading guards against using cycles.
	loading bool
}

type moduleLoader struct {
	fs       *source.FileSet
	reporter diag.Reporter
	word     int

	loaded map[string]*loadedModule
	order  []string
	files  []*source.File
}

// load parses and analyzes one file, resolving its using re-exports
// first so their symbols are importable. Modules are loaded at most
// once; cycles are a front-end error.
func (ld *moduleLoader) load(path string) *loadedModule {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if m, ok := ld.loaded[abs]; ok {
		if m.loading {
			diag.ReportError(ld.reporter, diag.CodeUsingCycle, source.Span{},
				fmt.Sprintf("module cycle through %s", path)).Emit()
			return nil
		}
		return m
	}

	m := &loadedModule{loading: true}
	ld.loaded[abs] = m
	ld.order = append(ld.order, abs)

	file, err := ld.fs.Load(path)
	if err != nil {
		diag.ReportError(ld.reporter, diag.CodeUsingNotFound, source.Span{},
			fmt.Sprintf("cannot read %s", path)).Emit()
		m.loading = false
		return nil
	}
	ld.files = append(ld.files, file)

	lx := lexer.New(file, ld.reporter)
	p := parser.New(lx, ld.reporter, ld.word)
	m.tree = p.ParseModule()

	var imports []*sym.Symbol
	dir := filepath.Dir(path)
	for c := m.tree.FirstChild; c != nil; c = c.NextSibling {
		if c.Tag != ast.Using {
			continue
		}
		sub := ld.load(filepath.Join(dir, c.Name+SourceExt))
		if sub == nil {
			continue
		}
		c.R = sub.tree
		imports = append(imports, sub.scope)
	}

	m.scope = sema.Analyze(m.tree, imports, ld.reporter).Module
	m.loading = false
	return m
}
