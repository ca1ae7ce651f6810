package channel

// From builds a Channel whose buffer capacity equals len(values) (1 when
// values is empty), already pre-filled with values in order. Unless keepOpen is true, the channel
// starts CLOSED and transitions to ENDED as soon as it's fully drained.
// Extra options (e.g. WithTransform) apply on top; any WithBuffer passed
// in opts is overridden, since From's buffer size is derived from values
// itself.
func From[T any](values []T, keepOpen bool, opts ...Option[T]) (*Channel[T], error) {
	size := len(values)
	if size == 0 {
		size = 1
	}

	opts = append(opts, WithBuffer[T](size))

	c, err := New[T](opts...)
	if err != nil {
		return nil, err
	}

	for _, v := range values {
		c.Put(v)
	}

	if !keepOpen {
		c.Close(false)
	}

	return c, nil
}

// MustFrom is like From but panics on error.
func MustFrom[T any](values []T, keepOpen bool, opts ...Option[T]) *Channel[T] {
	c, err := From[T](values, keepOpen, opts...)
	if err != nil {
		panic(err)
	}

	return c
}
