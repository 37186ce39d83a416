package module

// Base provides common plumbing for puzzle implementations (identity only;
// puzzle state lives in the concrete type).
type Base struct {
	info Info
}

// NewBase seeds the helper with module info.
func NewBase(info Info) Base {
	return Base{info: info}
}

// Info implements Module.Info.
func (b *Base) Info() Info {
	return b.info
}
