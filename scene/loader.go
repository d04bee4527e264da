package scene

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// LoadFunc loads a scene from a path.
type LoadFunc func(path string, logger *slog.Logger) (*Scene, error)

// Loader loads a scene in the background and publishes it once. Until the
// load succeeds Scene returns nil; a failed load is logged once and never
// retried.
type Loader struct {
	Load LoadFunc

	logger *slog.Logger
	scene  atomic.Pointer[Scene]
	done   chan struct{}
	err    error
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Load:   LoadModel,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start begins loading path. It must be called at most once. A panic in
// Load is reported as the load error.
func (l *Loader) Start(path string) {
	go func() {
		defer close(l.done)

		sc, err := l.load(path)
		if err != nil {
			l.err = err
			l.logger.Error("failed to load model", "path", path, "err", err)
			return
		}
		// The render thread owns the scene once it is stored.
		drawables := len(sc.Drawables())
		l.scene.Store(sc)
		l.logger.Info("model loaded", "path", path, "drawables", drawables)
	}()
}

func (l *Loader) load(path string) (sc *Scene, err error) {
	defer func() {
		if r := recover(); r != nil {
			sc, err = nil, fmt.Errorf("load %q: panic: %v", path, r)
		}
	}()
	sc, err = l.Load(path, l.logger)
	if err == nil && sc == nil {
		err = fmt.Errorf("load %q: no scene", path)
	}
	return sc, err
}

// Scene returns the loaded scene, or nil while loading or after a failure.
func (l *Loader) Scene() *Scene {
	return l.scene.Load()
}

// Err returns the load error once loading has finished.
func (l *Loader) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// Wait blocks until loading finishes or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
