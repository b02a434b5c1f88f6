package models

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrEmptyLesson: pagination over a lesson with zero sentences is
	// undefined and must not be coerced to page 1.
	ErrEmptyLesson = errors.New("lesson has no sentences")

	// ErrSentenceNotInLesson: a progress record referencing a sentence
	// outside its lesson is a data-integrity error, never a silent default.
	ErrSentenceNotInLesson = errors.New("sentence does not belong to lesson")
)
