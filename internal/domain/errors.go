package domain

import "errors"

var (
	// ErrConfigMissing means no source file or directory was found.
	// Fatal only when no layer at all resolves.
	ErrConfigMissing = errors.New("config missing")

	// ErrConfigParse means a layer holds malformed YAML. The layer is skipped.
	ErrConfigParse = errors.New("config parse error")

	// ErrTemplateMissing means a required layout or partial is absent.
	ErrTemplateMissing = errors.New("template missing")

	// ErrWrite means the output path could not be written.
	ErrWrite = errors.New("write error")
)
