// Package resolver answers "source text for this request path" by probing
// real source roots first and synthesizing from the compiled class
// otherwise.
package resolver

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/phobologic/jdsource/internal/decompile"
	srcerr "github.com/phobologic/jdsource/internal/errors"
	"github.com/phobologic/jdsource/internal/loader"
	"github.com/phobologic/jdsource/internal/metadata"
	"github.com/phobologic/jdsource/internal/model"
	"github.com/phobologic/jdsource/internal/source"
)

// Resolver binds a real-source finder, a container and an ordered list of
// source roots. It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	base      source.Finder
	container string
	roots     []string
	invoker   *decompile.Invoker
	logger    *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Resolver. A nil base never finds real source.
func New(base source.Finder, containerPath string, roots []string, invoker *decompile.Invoker, opts ...Option) *Resolver {
	if base == nil {
		base = source.None
	}
	r := &Resolver{
		base:      base,
		container: containerPath,
		roots:     append([]string(nil), roots...),
		invoker:   invoker,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Container returns the container path the resolver synthesizes from.
func (r *Resolver) Container() string { return r.container }

// Resolve returns the source text for requestPath. Real source found under
// a root wins; otherwise a ".java" request is synthesized from the
// container. found is false when neither produced text.
func (r *Resolver) Resolve(requestPath string, opts model.RenderOptions) (text string, found bool, err error) {
	text, found, err = r.Probe(requestPath)
	if err != nil || found {
		return text, found, err
	}

	name, ok := model.TypeNameFromSourcePath(requestPath)
	if !ok {
		return "", false, nil
	}

	c, err := loader.Select(r.container)
	if err != nil {
		return "", false, err
	}
	defer c.Close()

	return r.Synthesize(c, name, opts)
}

// Finder adapts the resolver to the source.Finder capability with fixed
// render options.
func (r *Resolver) Finder(opts model.RenderOptions) source.Finder {
	return source.FinderFunc(func(p string) (string, bool, error) {
		return r.Resolve(p, opts)
	})
}

// Synthesize decompiles name from an already opened container and applies
// the metadata policy. It reports found=false when the container does not
// hold the type.
func (r *Resolver) Synthesize(c loader.Container, name model.TypeName, opts model.RenderOptions) (string, bool, error) {
	if !c.CanLoad(string(name)) {
		r.logger.Debug("type not in container",
			zap.String("type", string(name)),
			zap.String("container", c.Path()))
		return "", false, nil
	}

	res, err := r.invoker.Decompile(c, name, opts)
	if err != nil {
		var e *srcerr.Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = c.Path()
		}
		return "", false, err
	}

	text := res.Text
	if opts.ShowMetadata {
		loc := metadata.Location{Container: c.Path(), Archive: c.IsArchive()}
		text = metadata.Compose(text, name, loc, res.Version, r.invoker.ToolVersion())
	}
	return text, true, nil
}

// Probe looks for real source only, trying every candidate path in order.
func (r *Resolver) Probe(requestPath string) (string, bool, error) {
	for _, p := range Candidates(r.roots, requestPath) {
		text, found, err := r.find(p)
		if err != nil || found {
			return text, found, err
		}
	}
	return "", false, nil
}

// Candidates returns the paths probed for requestPath: one per root in
// order, or requestPath itself when there are no roots.
func Candidates(roots []string, requestPath string) []string {
	if len(roots) == 0 {
		return []string{requestPath}
	}
	out := make([]string, len(roots))
	for i, root := range roots {
		out[i] = join(root, requestPath)
	}
	return out
}

func (r *Resolver) find(p string) (string, bool, error) {
	text, found, err := r.base.FindSource(p)
	if err != nil {
		var e *srcerr.Error
		if errors.As(err, &e) {
			return "", false, err
		}
		return "", false, srcerr.SourceIO(p, err)
	}
	if !found || text == "" {
		return "", false, nil
	}
	r.logger.Debug("real source found", zap.String("path", p))
	return text, true, nil
}

func join(root, requestPath string) string {
	if root == "" {
		return requestPath
	}
	return strings.TrimSuffix(root, "/") + "/" + requestPath
}
