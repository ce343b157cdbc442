package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")
	ErrTemplateMissing    = errors.New("template missing")
)
