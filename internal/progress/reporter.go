package progress

// Reporter receives progress from code doing work elsewhere.
// Advance takes the number of units just completed, not a running total.
type Reporter interface {
	Advance(n int64) error
	Message(msg string) error
	Finish() error
}

var (
	_ Reporter = (*Tracker)(nil)
	_ Reporter = (*Bar)(nil)
)
