// Package engine drives full compilation runs: snapshot in, artifact trees
// and manifests out. Target platforms compile in parallel with no shared
// mutable state; one target's failure never aborts its siblings.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/projection"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
	"github.com/ozmeta-labs/ozmeta/internal/writer"
	"github.com/ozmeta-labs/ozmeta/pkg/emitter"
)

// Options configures a compilation run.
type Options struct {
	// OutDir is the root output directory for artifact trees.
	OutDir string
	// Workers bounds parallel target compilation; 0 means GOMAXPROCS.
	Workers int
	// Platforms is the constraint/type profile set.
	Platforms *platform.Set
	// Logger defaults to discard.
	Logger *slog.Logger
}

// TargetResult is the outcome of compiling one target platform.
type TargetResult struct {
	TargetPlatform snapshot.TargetPlatform
	// Name is the canonical deployment-coordinate name, the artifact
	// directory under OutDir.
	Name     string
	Manifest *writer.Manifest
	// Err is the target's compilation error, nil on success. Errors here
	// are isolated; sibling targets still compile.
	Err error
}

// RunResult is the outcome of a full compilation run, ordered by target
// platform ID.
type RunResult struct {
	Targets []TargetResult
}

// Failed returns the targets that did not compile.
func (r *RunResult) Failed() []TargetResult {
	var out []TargetResult
	for _, t := range r.Targets {
		if t.Err != nil {
			out = append(out, t)
		}
	}
	return out
}

// Compile validates the snapshot, then resolves, emits and writes every
// enabled target platform. The returned error covers run-level failures
// only; per-target failures land in the result.
func Compile(ctx context.Context, doc *snapshot.Document, opts Options) (*RunResult, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Platforms == nil {
		opts.Platforms = platform.Builtin()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if err := snapshot.Validate(doc); err != nil {
		return nil, err
	}

	resolver, err := projection.NewResolver(doc, opts.Platforms)
	if err != nil {
		return nil, err
	}

	out := writer.New(opts.OutDir)
	targets := resolver.TargetPlatforms()
	log.Info("compiling", "targets", len(targets), "workers", workers)

	var mu sync.Mutex
	result := &RunResult{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, tp := range targets {
		g.Go(func() error {
			res := compileTarget(gctx, resolver, tp, doc, out, log)
			mu.Lock()
			result.Targets = append(result.Targets, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Targets, func(i, j int) bool {
		return result.Targets[i].TargetPlatform.ID < result.Targets[j].TargetPlatform.ID
	})
	return result, nil
}

func compileTarget(ctx context.Context, resolver *projection.Resolver, tp snapshot.TargetPlatform, doc *snapshot.Document, out *writer.Writer, log *slog.Logger) TargetResult {
	result := TargetResult{TargetPlatform: tp}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	proj, err := resolver.Resolve(tp)
	if err != nil {
		log.Error("projection failed", "targetPlatform", tp.ID, "error", err)
		result.Err = err
		return result
	}
	result.Name = projection.CanonicalName(proj.Target, tp.PlatformCode)

	em, ok := emitter.Get(tp.PlatformCode)
	if !ok {
		result.Err = fmt.Errorf("no emitter registered for platform %q", tp.PlatformCode)
		return result
	}

	emitted, err := em.Emit(proj)
	if err != nil {
		log.Error("emission failed", "targetPlatform", tp.ID, "platform", tp.PlatformCode, "error", err)
		result.Err = fmt.Errorf("emitting %s: %w", result.Name, err)
		return result
	}

	manifest, err := out.Write(result.Name, emitted)
	if err != nil {
		result.Err = fmt.Errorf("writing %s: %w", result.Name, err)
		return result
	}
	result.Manifest = manifest

	log.Info("target compiled", "targetPlatform", tp.ID, "name", result.Name, "files", len(manifest.Files))
	return result
}
