package navigation

type goOptions struct {
	target   string
	encoding string
}

// GoOption configures Engine.Go.
type GoOption func(*goOptions)

// WithTarget scrolls to the anchor id after opening.
func WithTarget(anchor string) GoOption {
	return func(o *goOptions) { o.target = anchor }
}

// WithEncoding pins the document encoding before opening.
func WithEncoding(encoding string) GoOption {
	return func(o *goOptions) { o.encoding = encoding }
}

type reloadOptions struct {
	scroll    float64
	hasScroll bool
}

// ReloadOption configures Engine.ReloadCurrent.
type ReloadOption func(*reloadOptions)

// WithScrollPosition overrides the scroll position of the reloaded location.
func WithScrollPosition(p float64) ReloadOption {
	return func(o *reloadOptions) {
		o.scroll = p
		o.hasScroll = true
	}
}
