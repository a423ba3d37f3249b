package differ

// Option is a functional option for configuring a Differ.
type Option func(*Differ)

// WithIgnoredFields excludes fields from comparison.
func WithIgnoredFields(fields ...string) Option {
	return func(d *Differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}

// WithRegimeRenderer sets how taxation labels are reduced to a comparable
// form. The default maps both sides to their canonical regime name.
func WithRegimeRenderer(render func(label string) string) Option {
	return func(d *Differ) {
		if render != nil {
			d.renderRegime = render
		}
	}
}
