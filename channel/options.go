package channel

import (
	"github.com/ezex-io/gopkg/chanflow/errors"
	"github.com/ezex-io/gopkg/chanflow/internal/future"
	"github.com/ezex-io/gopkg/chanflow/internal/queue"
	"github.com/ezex-io/gopkg/chanflow/logger"
)

// config collects constructor options. There's no runtime way to tell
// "the caller passed a buffer size" apart from "the zero value," so hasSize
// tracks whether WithBuffer was used at all.
type config[T any] struct {
	size      int
	hasSize   bool
	transform Transform[T]
	logger    logger.Logger
}

// Option configures a Channel at construction time.
type Option[T any] func(*config[T])

// WithBuffer gives the channel a bounded buffer of the given capacity. size
// must be positive; New reports errors.ErrInvalidArgument otherwise.
func WithBuffer[T any](size int) Option[T] {
	return func(c *config[T]) {
		c.size = size
		c.hasSize = true
	}
}

// WithTransform installs a Transform (MapFunc, PushFunc, or AsyncPushFunc).
// Without this option the channel uses the identity transform.
func WithTransform[T any](t Transform[T]) Option[T] {
	return func(c *config[T]) {
		c.transform = t
	}
}

// WithLogger overrides the logger used for the channel's internal
// state-transition and transform-panic diagnostics. Defaults to
// logger.DefaultSlog.
func WithLogger[T any](l logger.Logger) Option[T] {
	return func(c *config[T]) {
		c.logger = l
	}
}

// New constructs a Channel. Functional options compose the four
// constructor shapes:
//
//	New[T]()                                    // unbuffered, identity
//	New[T](WithBuffer(n))                        // buffered, identity
//	New[T](WithTransform(t))                     // unbuffered, transform t
//	New[T](WithBuffer(n), WithTransform(t))       // buffered, transform t
func New[T any](opts ...Option[T]) (*Channel[T], error) {
	cfg := config[T]{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.hasSize && cfg.size <= 0 {
		return nil, errors.ErrInvalidArgument.Clone().AddMeta("argument", "size")
	}

	return newChannel(cfg), nil
}

// MustNew is like New but panics on error. Useful where construction
// arguments are static and a constructor error would mean a programming
// mistake, such as wiring a pipeline in an init function.
func MustNew[T any](opts ...Option[T]) *Channel[T] {
	c, err := New[T](opts...)
	if err != nil {
		panic(err)
	}

	return c
}

func newChannel[T any](cfg config[T]) *Channel[T] {
	transform := cfg.transform
	if transform == nil {
		transform = identity[T]()
	}

	l := cfg.logger
	if l == nil {
		l = logger.DefaultSlog
	}

	var buf *queue.FixedQueue[T]
	if cfg.hasSize && cfg.size > 0 {
		buf = queue.NewFixed[T](cfg.size)
	}

	return &Channel[T]{
		state:     StateOpen,
		buf:       buf,
		puts:      queue.NewList[*putRecord[T]](),
		takes:     queue.NewList[*future.Future[Result[T]]](),
		tail:      queue.NewList[*putRecord[T]](),
		transform: transform,
		logger:    l,
	}
}
