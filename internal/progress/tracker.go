package progress

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	sanitize "github.com/mrz1836/go-sanitize"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"
)

var (
	// ErrInvalidTotal is returned when a tracker is built with a negative
	// total, or advanced while its total is zero.
	ErrInvalidTotal = errors.New("invalid total")
	// ErrNegativeIncrement is returned by Advance for n < 0.
	ErrNegativeIncrement = errors.New("negative increment")
)

// OverflowPolicy decides what the ruler shows once count passes total.
type OverflowPolicy int

const (
	// OverflowClamp stops the ruler at Scale ticks.
	OverflowClamp OverflowPolicy = iota
	// OverflowAllow keeps growing the ruler past Scale ("100", "110", ...).
	OverflowAllow
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowClamp:
		return "clamp"
	case OverflowAllow:
		return "allow"
	}
	return fmt.Sprintf("OverflowPolicy(%d)", int(p))
}

// ParseOverflow converts "clamp" or "allow" into an OverflowPolicy.
func ParseOverflow(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clamp", "":
		return OverflowClamp, nil
	case "allow":
		return OverflowAllow, nil
	}
	return OverflowClamp, fmt.Errorf("unknown overflow policy %q (want clamp|allow)", s)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithWriter sets the output target. The default is os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(t *Tracker) { t.out = bufio.NewWriter(w) }
}

// WithOverflow sets the over-advance policy. The default is OverflowClamp.
func WithOverflow(p OverflowPolicy) Option {
	return func(t *Tracker) { t.overflow = p }
}

// WithFiller replaces the glyph drawn between decade labels.
// An empty string keeps DefaultFiller.
func WithFiller(glyph string) Option {
	return func(t *Tracker) {
		if glyph != "" {
			t.filler = glyph
		}
	}
}

// WithSingleLineMessages flattens interleaved messages onto one line so
// embedded line breaks cannot displace the ruler.
func WithSingleLineMessages() Option {
	return func(t *Tracker) { t.singleLine = true }
}

// WithLogger traces render decisions at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// Tracker renders a growing ruler ("0...10...20...") on a single terminal
// line as work completes. The line is only redrawn when the visible tick
// moves forward.
//
// A nil *Tracker is valid; all methods are no-ops, which keeps quiet mode
// free of nil checks at call sites. Methods are safe for concurrent use.
//
// Output is buffered per operation and flushed before each method returns.
// Once the writer fails, every later operation reports that failure.
type Tracker struct {
	mu sync.Mutex

	out        *bufio.Writer
	log        *zap.Logger
	filler     string
	overflow   OverflowPolicy
	singleLine bool

	total    int64
	count    int64
	lastTick int
	width    int // columns written by the last render
}

// New returns a Tracker expecting total units of work.
func New(total int64, opts ...Option) (*Tracker, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTotal, total)
	}
	return newTracker(total, opts), nil
}

// NewDefault returns a Tracker with a total of zero. It can interleave
// messages and finish, but Advance fails with ErrInvalidTotal since no
// tick can be derived from a zero total.
func NewDefault(opts ...Option) *Tracker {
	return newTracker(0, opts)
}

func newTracker(total int64, opts []Option) *Tracker {
	t := &Tracker{
		log:      zap.NewNop(),
		filler:   DefaultFiller,
		overflow: OverflowClamp,
		total:    total,
		lastTick: -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.out == nil {
		t.out = bufio.NewWriter(os.Stdout)
	}
	return t
}

// Advance adds n completed units and redraws the ruler if the tick moved
// forward. n is an increment, not a running total. The count saturates
// at math.MaxInt64.
func (t *Tracker) Advance(n int64) error {
	if t == nil {
		return nil
	}
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeIncrement, n)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.total == 0 {
		return fmt.Errorf("%w: advance with zero total", ErrInvalidTotal)
	}
	if n > math.MaxInt64-t.count {
		t.count = math.MaxInt64
	} else {
		t.count += n
	}
	tick := tickFor(t.count, t.total, t.overflow)
	if tick <= t.lastTick {
		return nil
	}
	t.log.Debug("ruler advanced",
		zap.Int("from", t.lastTick),
		zap.Int("to", tick),
		zap.Int64("count", t.count),
		zap.Int64("total", t.total))
	t.lastTick = tick
	t.render(tick)
	return t.flush("advance")
}

// Message prints msg on its own line above the ruler. The ruler is
// redrawn unchanged underneath; count and tick are not touched.
func (t *Tracker) Message(msg string) error {
	if t == nil {
		return nil
	}
	if t.singleLine {
		msg = sanitize.SingleLine(msg)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.clear()
	_ = t.out.WriteByte('\r')
	_, _ = t.out.WriteString(msg)
	_ = t.out.WriteByte('\n')
	t.render(t.lastTick)
	return t.flush("message")
}

// Finish erases the ruler and leaves the cursor at the start of the line.
// It does not check that all work was reported.
func (t *Tracker) Finish() error {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.clear()
	_ = t.out.WriteByte('\r')
	t.log.Debug("ruler finished", zap.Int64("count", t.count), zap.Int64("total", t.total))
	return t.flush("finish")
}

// Count returns the cumulative units reported so far.
func (t *Tracker) Count() int64 {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Total returns the expected number of units.
func (t *Tracker) Total() int64 {
	if t == nil {
		return 0
	}
	return t.total
}

// Tick returns the last rendered tick, or -1 if nothing was rendered yet.
func (t *Tracker) Tick() int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastTick
}

func (t *Tracker) render(tick int) {
	_ = t.out.WriteByte('\r')
	ruler := Ruler(tick, t.filler)
	_, _ = t.out.WriteString(ruler)
	t.width = uniseg.StringWidth(ruler)
}

// clear blanks exactly the columns written by the last render.
func (t *Tracker) clear() {
	_ = t.out.WriteByte('\r')
	_, _ = t.out.WriteString(strings.Repeat(" ", t.width))
	t.width = 0
}

func (t *Tracker) flush(op string) error {
	if err := t.out.Flush(); err != nil {
		return fmt.Errorf("%s: write ruler: %w", op, err)
	}
	return nil
}
