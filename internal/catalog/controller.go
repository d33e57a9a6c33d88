package catalog

import (
	"sync"
	"time"

	"technofest/internal/model"
)

// DefaultDebounce is the quiet period before a typed search is applied.
const DefaultDebounce = 300 * time.Millisecond

// RenderFunc receives every recomputed result, in order. It runs without the
// controller's lock, so it may call back into the controller.
type RenderFunc func(Result)

// Controller owns the filter state of one catalogue view: the mirrored
// events, the applied query and the term still waiting on the debounce.
type Controller struct {
	render   RenderFunc
	debounce *Debouncer

	mu       sync.Mutex
	events   []model.Event
	query    Query
	pending  string
	queue    []Result
	draining bool
}

// Option configures a Controller.
type Option func(*controllerOptions)

type controllerOptions struct {
	delay time.Duration
	after AfterFunc
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(o *controllerOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithAfterFunc swaps the timer implementation, for tests.
func WithAfterFunc(after AfterFunc) Option {
	return func(o *controllerOptions) { o.after = after }
}

// NewController returns a controller with an empty query. render may be nil.
func NewController(render RenderFunc, opts ...Option) *Controller {
	o := controllerOptions{delay: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	if render == nil {
		render = func(Result) {}
	}
	return &Controller{
		render:   render,
		debounce: NewDebouncer(o.delay, o.after),
		query:    NewQuery("", CategoryAll),
	}
}

// Refresh replaces the event list and recomputes. Register it as the mirror's
// change callback.
func (c *Controller) Refresh(events []model.Event) {
	c.update(func() { c.events = events })
}

// Search records raw input and applies it once typing pauses.
func (c *Controller) Search(raw string) {
	c.mu.Lock()
	c.pending = raw
	c.mu.Unlock()

	c.debounce.Trigger(func() {
		c.update(func() { c.query.Term = NormalizeTerm(c.pending) })
	})
}

// ClearSearch drops both the applied and the pending term immediately.
func (c *Controller) ClearSearch() {
	c.debounce.Stop()
	c.update(func() {
		c.pending = ""
		c.query.Term = ""
	})
}

// SetCategory applies a category filter immediately.
func (c *Controller) SetCategory(category string) {
	c.update(func() { c.query.Category = normalizeCategory(category) })
}

// Query returns the applied query.
func (c *Controller) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Result recomputes without rendering.
func (c *Controller) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filter(c.events, c.query)
}

// Stop cancels a pending search.
func (c *Controller) Stop() {
	c.debounce.Stop()
}

// update applies change and queues the recomputed result. One caller at a
// time drains the queue, rendering outside the lock.
func (c *Controller) update(change func()) {
	c.mu.Lock()
	change()
	c.queue = append(c.queue, Filter(c.events, c.query))
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}
		res := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.render(res)
	}
}
