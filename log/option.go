package log

import "io"

// Option applies a configuration option to config.
type Option func(config) config

// apply applies multiple options to a config.
func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	return cfg
}

// WithDefaults resets the config to default values writing to w.
func WithDefaults(w io.Writer) Option {
	return func(cfg config) config {
		cfg.output = w
		cfg.level = DefaultLevel
		cfg.format = DefaultFormat
		cfg.timeLayout = DefaultTimeLayout
		cfg.caller = false
		cfg.pretty = true

		return cfg
	}
}

// WithOutput sets the log output writer.
func WithOutput(w io.Writer) Option {
	return func(cfg config) config {
		cfg.output = w

		return cfg
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) Option {
	return func(cfg config) config {
		cfg.level = level

		return cfg
	}
}

// WithFormat sets the log output format.
func WithFormat(format Format) Option {
	return func(cfg config) config {
		cfg.format = format

		return cfg
	}
}

// WithTimeLayout sets the timestamp layout.
func WithTimeLayout(layout string) Option {
	return func(cfg config) config {
		cfg.timeLayout = ParseTimeLayout(layout)

		return cfg
	}
}

// WithCaller enables or disables caller information in log output.
func WithCaller(enable bool) Option {
	return func(cfg config) config {
		cfg.caller = enable

		return cfg
	}
}

// WithPretty enables or disables colorized pretty printing for text output.
func WithPretty(enable bool) Option {
	return func(cfg config) config {
		cfg.pretty = enable

		return cfg
	}
}
