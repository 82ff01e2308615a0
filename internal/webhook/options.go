package webhook

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}
