package host

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/phobologic/jdsource/internal/config"
	"github.com/phobologic/jdsource/internal/decompile"
	"github.com/phobologic/jdsource/internal/model"
	"github.com/phobologic/jdsource/internal/resolver"
	"github.com/phobologic/jdsource/internal/skeleton"
	"github.com/phobologic/jdsource/internal/source"
)

// ErrNoContainer is returned when a session is created without a container.
var ErrNoContainer = errors.New("no container configured")

// Session is the context object shared by the command's operations.
type Session struct {
	mu     sync.RWMutex
	cfg    config.Config
	render model.RenderOptions
	gen    uint64 // bumped with every option change

	resolver   *resolver.Resolver
	attachment source.Attachment
	cache      *Cache
	events     *Events
	logger     *zap.Logger
}

// NewSession wires a resolver for cfg. The real-source attachment is
// cfg.Source when set, otherwise the container itself.
func NewSession(cfg config.Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Container == "" {
		return nil, ErrNoContainer
	}

	cache, err := NewCache(cfg.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	s := &Session{
		cfg:    cfg,
		render: cloneRender(cfg.Render),
		cache:  cache,
		events: NewEvents(),
		logger: logger,
	}

	var base source.Finder = source.None
	attachPath := cfg.Source
	if attachPath == "" {
		attachPath = cfg.Container
	}
	att, err := source.Open(attachPath)
	switch {
	case err == nil:
		s.attachment = att
		base = att
	case cfg.Source != "":
		return nil, err
	default:
		logger.Debug("container not usable as source attachment", zap.Error(err))
	}

	invoker := decompile.NewInvoker(newDecompiler(cfg.Decompiler), decompile.WithLogger(logger))
	s.resolver = resolver.New(base, cfg.Container, cfg.SourceRoots, invoker, resolver.WithLogger(logger))
	return s, nil
}

func newDecompiler(cfg config.Decompiler) decompile.Decompiler {
	if len(cfg.Command) > 0 {
		return decompile.Exec{Command: cfg.Command, Timeout: cfg.Timeout}
	}
	return skeleton.Decompiler{}
}

func cloneRender(r model.RenderOptions) model.RenderOptions {
	r.Options = maps.Clone(r.Options)
	return r
}

// Config returns the configuration the session was created with.
func (s *Session) Config() config.Config { return s.cfg }

func (s *Session) Resolver() *resolver.Resolver { return s.resolver }

func (s *Session) Events() *Events { return s.events }

func (s *Session) Cache() *Cache { return s.cache }

// Render returns a snapshot of the current render options.
func (s *Session) Render() model.RenderOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRender(s.render)
}

// Resolve resolves requestPath with a snapshot of the render options,
// serving repeated requests from the cache.
func (s *Session) Resolve(requestPath string) (string, bool, error) {
	s.mu.RLock()
	opts := cloneRender(s.render)
	gen := s.gen
	s.mu.RUnlock()
	container := s.resolver.Container()

	if text, ok := s.cache.Get(container, requestPath, opts); ok {
		s.logger.Debug("cache hit", zap.String("path", requestPath))
		return text, true, nil
	}

	text, found, err := s.resolver.Resolve(requestPath, opts)
	if err != nil || !found {
		return text, found, err
	}

	// text rendered with options replaced meanwhile must not be cached
	s.mu.Lock()
	if s.gen == gen {
		s.cache.Add(container, requestPath, opts, text)
	}
	s.mu.Unlock()
	return text, true, nil
}

// Invalidate evicts cached text for requestPath so the next Resolve
// re-synthesizes it.
func (s *Session) Invalidate(requestPath string) int {
	return s.cache.Invalidate(s.resolver.Container(), requestPath)
}

// SetOption changes one option, purges the cache and publishes the change.
// The four render keys take a bool; any other key is forwarded to the
// transform.
func (s *Session) SetOption(key string, value any) error {
	s.mu.Lock()
	changed, err := s.apply(key, value)
	if changed {
		s.invalidateLocked()
	}
	snapshot := cloneRender(s.render)
	s.mu.Unlock()

	if err != nil || !changed {
		return err
	}

	s.logger.Debug("option changed", zap.String("key", key), zap.Any("value", value))
	s.events.Publish(Event{Key: key, Value: value, Render: snapshot})
	return nil
}

// ApplyRender sets every render flag that differs from opts at once and
// publishes a single KeyRender event listing the changed keys.
func (s *Session) ApplyRender(opts model.RenderOptions) error {
	updates := []struct {
		key   string
		value bool
	}{
		{KeyEscapeUnicode, opts.EscapeUnicode},
		{KeyRealignLineNumbers, opts.RealignLineNumbers},
		{KeyShowLineNumbers, opts.ShowLineNumbers},
		{KeyShowMetadata, opts.ShowMetadata},
	}

	s.mu.Lock()
	var changed []string
	for _, u := range updates {
		ok, err := s.apply(u.key, u.value)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		if ok {
			changed = append(changed, u.key)
		}
	}
	if len(changed) > 0 {
		s.invalidateLocked()
	}
	snapshot := cloneRender(s.render)
	s.mu.Unlock()

	if len(changed) == 0 {
		return nil
	}
	s.logger.Debug("render options changed", zap.Strings("keys", changed))
	s.events.Publish(Event{Key: KeyRender, Value: changed, Render: snapshot})
	return nil
}

// invalidateLocked drops cached text after an option change. s.mu must be
// held for writing.
func (s *Session) invalidateLocked() {
	s.gen++
	s.cache.Purge()
}

func (s *Session) apply(key string, value any) (bool, error) {
	var dst *bool
	switch key {
	case KeyEscapeUnicode:
		dst = &s.render.EscapeUnicode
	case KeyRealignLineNumbers:
		dst = &s.render.RealignLineNumbers
	case KeyShowLineNumbers:
		dst = &s.render.ShowLineNumbers
	case KeyShowMetadata:
		dst = &s.render.ShowMetadata
	default:
		if old, ok := s.render.Options[key]; ok && reflect.DeepEqual(old, value) {
			return false, nil
		}
		if s.render.Options == nil {
			s.render.Options = make(map[string]any)
		}
		s.render.Options[key] = value
		return true, nil
	}

	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("option %s: expected bool, got %T", key, value)
	}
	if *dst == b {
		return false, nil
	}
	*dst = b
	return true, nil
}

// Close releases the source attachment.
func (s *Session) Close() error {
	if s.attachment != nil {
		return s.attachment.Close()
	}
	return nil
}
