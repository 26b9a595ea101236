package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar is a Reporter backed by progressbar.ProgressBar, drawing a
// conventional "[####    ] 12/40" bar instead of the ruler.
// A nil *Bar is valid; all methods are no-ops.
type Bar struct {
	bar *progressbar.ProgressBar
	w   io.Writer
}

// NewBar creates a determinate bar for total units written to w.
// A total of zero or less gives an indeterminate spinner that counts
// completed units instead.
func NewBar(w io.Writer, total int64, description string) *Bar {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	}
	if total <= 0 {
		total = -1
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetWidth(20),
		)
	} else {
		// No throttle: Message must be able to redraw the bar at once.
		opts = append(opts, progressbar.OptionSetWidth(Scale))
	}
	return &Bar{bar: progressbar.NewOptions64(total, opts...), w: w}
}

// Advance adds n completed units.
func (b *Bar) Advance(n int64) error {
	if b == nil {
		return nil
	}
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeIncrement, n)
	}
	return b.bar.Add64(n)
}

// Message prints msg on its own line and redraws the bar below it.
func (b *Bar) Message(msg string) error {
	if b == nil {
		return nil
	}
	if err := b.bar.Clear(); err != nil {
		return fmt.Errorf("message: clear bar: %w", err)
	}
	if _, err := fmt.Fprintln(b.w, msg); err != nil {
		return fmt.Errorf("message: %w", err)
	}
	return b.bar.RenderBlank()
}

// Finish completes the bar and clears it from the line.
func (b *Bar) Finish() error {
	if b == nil {
		return nil
	}
	return b.bar.Finish()
}
