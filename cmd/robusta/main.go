// robusta CLI - generates JNI bridge code from annotated Go packages
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/EchidnaHQ/robusta/bridge"
	"github.com/EchidnaHQ/robusta/cache"
	"github.com/EchidnaHQ/robusta/gen"
	"github.com/EchidnaHQ/robusta/introspect"
	"github.com/EchidnaHQ/robusta/manifest"
	"github.com/EchidnaHQ/robusta/transform"
	"github.com/EchidnaHQ/robusta/wire"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("robusta")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	dir := flag.String("C", ".", "Directory to run in (manifest discovery starts here)")
	output := flag.String("o", "", "Output file (overrides manifest)")
	pkgPath := flag.String("p", "", "Annotated package to introspect (overrides manifest)")
	emitModule := flag.String("emit-module", "", "Write the raw declaration module to this file as CBOR")
	noCache := flag.Bool("no-cache", false, "Skip the generation cache")
	skipValidation := flag.Bool("skip-validation", false, "Skip the syntax check of generated output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: robusta [options]\n\n")
		fmt.Fprintf(os.Stderr, "Generates JNI bridge entry points from an annotated Go package.\n")
		fmt.Fprintf(os.Stderr, "Configuration comes from robusta.toml, found by walking up from -C.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  robusta                       # Generate per robusta.toml\n")
		fmt.Fprintf(os.Stderr, "  robusta -p ./bindings -o j.go # Generate without a manifest\n")
		fmt.Fprintf(os.Stderr, "  robusta -emit-module mod.cbor # Dump declarations for external tooling\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	if err := run(*dir, *pkgPath, *output, *emitModule, *noCache, *skipValidation, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "robusta: %v\n", err)
		os.Exit(1)
	}
}

func run(dir, pkgPath, output, emitModule string, noCache, skipValidation, verbose bool) error {
	man, err := manifest.FindAndLoad(dir)
	if err != nil {
		return err
	}
	if man == nil && pkgPath == "" {
		return fmt.Errorf("no robusta.toml found above %s and no -p package given", dir)
	}

	mod, diags, err := loadModule(man, dir, pkgPath)
	if err != nil {
		return err
	}
	if man != nil {
		// Manifest package mappings supplement and override in-source
		// directives.
		for typeName, javaPkg := range man.Packages {
			mod.Packages[typeName] = javaPkg
		}
	}

	if emitModule != "" {
		data, err := wire.Encode(mod)
		if err != nil {
			return fmt.Errorf("encoding module: %w", err)
		}
		if err := os.WriteFile(emitModule, data, 0o644); err != nil {
			return err
		}
		log.Infof("wrote declaration module to %s", emitModule)
	}

	outPath := outputPath(man, dir, output)

	var store *cache.Cache
	var hash [32]byte
	if !noCache && man != nil {
		hash, err = wire.Hash(mod)
		if err != nil {
			return fmt.Errorf("hashing module: %w", err)
		}
		store, err = openCache(man.CachePath())
		if err != nil {
			log.Errorf("cache unavailable: %v", err)
		} else {
			defer store.Close()
			entry, err := store.Get(hash)
			if err == nil {
				log.Infof("cache hit for module %s (run %s)", entry.ModuleName, entry.RunID)
				reportDiagnostics(entry.Diagnostics)
				return writeOutput(outPath, entry.Code, verbose)
			}
			if err != cache.ErrMiss {
				log.Errorf("cache read: %v", err)
			}
		}
	}

	out, moreDiags := transform.New(mod).Transform()
	diags = append(diags, moreDiags...)
	reportDiagnostics(diags)
	if hasErrors(diags) {
		return fmt.Errorf("transformation failed")
	}

	result, err := gen.Render(out, mod.Name, gen.Options{SkipValidation: skipValidation})
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(os.Stderr, "warning: skipped %s: %s\n", s.Symbol, s.Reason)
	}

	if store != nil {
		runID, err := store.Put(hash, mod.Name, result.Code, diags)
		if err != nil {
			log.Errorf("cache write: %v", err)
		} else {
			log.Infof("cached generation run %s", runID)
		}
	}

	return writeOutput(outPath, result.Code, verbose)
}

// loadModule obtains the declaration module, either by decoding a CBOR
// file produced by an external front-end or by introspecting the annotated
// Go package.
func loadModule(man *manifest.Manifest, dir, pkgPath string) (*bridge.Module, []bridge.Diagnostic, error) {
	if pkgPath == "" && man != nil && man.Source.Module != "" {
		path := filepath.Join(man.Dir, man.Source.Module)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading module file: %w", err)
		}
		mod, err := wire.Decode(data)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return mod, nil, nil
	}

	if pkgPath == "" {
		if man == nil || man.Source.Package == "" {
			return nil, nil, fmt.Errorf("manifest names no source package")
		}
		pkgPath = man.Source.Package
		if isRelative(pkgPath) {
			pkgPath = filepath.Join(man.Dir, pkgPath)
		}
	} else if isRelative(pkgPath) {
		pkgPath = filepath.Join(dir, pkgPath)
	}

	return introspect.LoadPackage(pkgPath)
}

func outputPath(man *manifest.Manifest, dir, override string) string {
	if override != "" {
		if filepath.IsAbs(override) {
			return override
		}
		return filepath.Join(dir, override)
	}
	if man != nil {
		return man.OutputPath()
	}
	return filepath.Join(dir, "bridge_gen.go")
}

func openCache(path string) (*cache.Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return cache.Open(path)
}

func writeOutput(path, code string, verbose bool) error {
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return err
	}
	if verbose {
		fmt.Printf("Wrote %s (%d bytes)\n", path, len(code))
	}
	return nil
}

func reportDiagnostics(diags []bridge.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

func hasErrors(diags []bridge.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == bridge.SeverityError {
			return true
		}
	}
	return false
}

// isRelative reports whether the path names a directory relative to the
// manifest rather than an import path or absolute directory.
func isRelative(path string) bool {
	return path == "." || path == ".." ||
		len(path) > 1 && (path[:2] == "./" || path[:2] == "..")
}
