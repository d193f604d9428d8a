package project

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/forge/environment"
	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/logger"
	"github.com/kbukum/forge/observability"
	"github.com/kbukum/forge/process"
)

// AllPlatforms names the routine used when a package has none for the
// requested platform.
const AllPlatforms = "all"

// Record describes where a package was installed and how it is configured.
type Record struct {
	Destination string
	Options     *environment.Environment
}

// Platform is a build platform with its own environment.
type Platform struct {
	Name        string
	Environment *environment.Environment
}

// BuildFunc is a package's build routine for one platform.
type BuildFunc func(ctx context.Context, inv *Invocation) error

// Invocation is what a build routine receives.
type Invocation struct {
	Package  *Package
	Platform *Platform
	// Environment combines the record options, the platform environment
	// and the explicit configuration, most specific last.
	Environment *environment.Environment
	Values      environment.Values
	// Dir is the package directory. Commands run there.
	Dir string
}

// Command returns a command that runs argv in the package directory with
// the invocation's environment.
func (inv *Invocation) Command(argv ...string) process.Command {
	return process.Command{Argv: argv, Dir: inv.Dir, Env: inv.Values.Shell()}
}

// Package is one resolved package.
type Package struct {
	Name    string
	Version string
	// Path is the directory the package was installed into.
	Path string
	// SourcePath is the package's own directory below Path.
	SourcePath string
	Depends    []string
	Record     *Record

	mu     sync.RWMutex
	builds map[string]BuildFunc
}

// ParsePackage creates a package from its directory name. The text after
// the last "-" is the version: "zlib-ng-2.1" is zlib-ng version 2.1.
func ParsePackage(record *Record, dirname string) *Package {
	name, version := dirname, ""
	if i := strings.LastIndex(dirname, "-"); i >= 0 {
		name, version = dirname[:i], dirname[i+1:]
	}
	p := &Package{
		Name:    name,
		Version: version,
		Record:  record,
		builds:  make(map[string]BuildFunc),
	}
	if record != nil {
		p.Path = record.Destination
		p.SourcePath = filepath.Join(record.Destination, dirname)
	}
	return p
}

// Define sets the build routine for platform. Use AllPlatforms for the
// fallback routine.
func (p *Package) Define(platform string, fn BuildFunc) *Package {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.builds == nil {
		p.builds = make(map[string]BuildFunc)
	}
	p.builds[platform] = fn
	return p
}

func (p *Package) routine(platform string) (BuildFunc, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if fn, ok := p.builds[platform]; ok {
		return fn, true
	}
	fn, ok := p.builds[AllPlatforms]
	return fn, ok
}

// Build runs the routine for platform, or the AllPlatforms routine, in the
// package directory. A nil platform selects AllPlatforms. The routine's
// environment is the record options overridden by the platform environment,
// overridden in turn by config.
func (p *Package) Build(ctx context.Context, platform *Platform, config *environment.Environment) (err error) {
	if platform == nil {
		platform = &Platform{Name: AllPlatforms}
	}
	fn, ok := p.routine(platform.Name)
	if !ok {
		return errors.MissingBuildTask(p.Name, platform.Name)
	}

	var options *environment.Environment
	if p.Record != nil {
		options = p.Record.Options
	}
	env := environment.Combine(options, platform.Environment, config)
	values, err := env.Flatten()
	if err != nil {
		return err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanPackage)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPackage, p.Name)
	observability.SetSpanAttribute(ctx, observability.AttrPlatform, platform.Name)

	log := logger.Get("project")
	start := time.Now()
	defer func() {
		fields := logger.Fields(
			logger.FieldPackage, p.Name,
			logger.FieldPlatform, platform.Name,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		if err != nil {
			observability.SetSpanError(ctx, err)
			fields[logger.FieldError] = err.Error()
			log.Error("package build failed", fields)
			return
		}
		log.Info("package built", fields)
	}()

	return fn(ctx, &Invocation{
		Package:     p,
		Platform:    platform,
		Environment: env,
		Values:      values,
		Dir:         p.Path,
	})
}

func (p *Package) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "-" + p.Version
}
