package analyzer

import "errors"

var (
	// ErrNotFound indicates the source file does not exist
	ErrNotFound = errors.New("file does not exist")

	// ErrRead indicates the source file exists but could not be read
	ErrRead = errors.New("could not read file")

	// ErrSyntax indicates the source is not valid Python
	ErrSyntax = errors.New("syntax error")

	// ErrParse indicates parsing failed for a reason other than bad syntax
	ErrParse = errors.New("unknown parse failure")
)
