package reader

import "sync"

// Frame is the result of rendering one page at one zoom scale.
type Frame struct {
	Page     int
	Scale    float64
	Viewport Viewport
	Content  []byte
}

// Surface receives rendered frames. A session owns exactly one surface and
// paints every committed render result onto it. A failed render is reported
// inline without replacing the last good frame.
type Surface interface {
	SetFrame(frame Frame)
	SetPageError(page int, err error)
}

// Canvas is the default surface: it keeps the most recent frame and any
// inline render error for the HTTP layer to serve.
type Canvas struct {
	mu        sync.RWMutex
	frame     Frame
	hasFrame  bool
	errPage   int
	renderErr error
}

// NewCanvas creates an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{}
}

// SetFrame commits a rendered frame and clears any previous inline error.
func (c *Canvas) SetFrame(frame Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
	c.hasFrame = true
	c.renderErr = nil
	c.errPage = 0
}

// SetPageError records an inline render failure for a page.
func (c *Canvas) SetPageError(page int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errPage = page
	c.renderErr = err
}

// Frame returns the last committed frame, if any.
func (c *Canvas) Frame() (Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame, c.hasFrame
}

// PageError returns the current inline render error, if any.
func (c *Canvas) PageError() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errPage, c.renderErr
}
