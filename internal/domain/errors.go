package domain

import (
	"errors"
	"fmt"
)

// FailureKind is the closed set of failures the core can report.
type FailureKind int

const (
	KindProcessing FailureKind = iota
	KindNoContent
	KindEmbedding
	KindMismatch
	KindTimeout
	KindInvalidDocument
	KindProtectedDocument
	KindGeneration
)

var kindNames = [...]string{
	KindProcessing:        "processing",
	KindNoContent:         "no_content",
	KindEmbedding:         "embedding",
	KindMismatch:          "mismatch",
	KindTimeout:           "timeout",
	KindInvalidDocument:   "invalid_document",
	KindProtectedDocument: "protected_document",
	KindGeneration:        "generation",
}

func (k FailureKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

var (
	// ErrNoContent signals that chunking produced zero usable passages.
	ErrNoContent = errors.New("no usable content")
	// ErrEmbedding signals an embedding service failure.
	ErrEmbedding = errors.New("embedding failed")
	// ErrMismatch signals that result and input counts disagree.
	ErrMismatch = errors.New("count mismatch")
	// ErrTimeout signals that ingestion exceeded its time budget.
	ErrTimeout = errors.New("ingestion timed out")
	// ErrInvalidDocument signals a corrupted or non-PDF binary.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrProtectedDocument signals a password-protected binary.
	ErrProtectedDocument = errors.New("protected document")
	// ErrProcessing signals any other extraction or indexing error.
	ErrProcessing = errors.New("processing failed")
	// ErrGeneration signals an answer synthesis failure.
	ErrGeneration = errors.New("generation failed")
)

var kindSentinels = map[FailureKind]error{
	KindProcessing:        ErrProcessing,
	KindNoContent:         ErrNoContent,
	KindEmbedding:         ErrEmbedding,
	KindMismatch:          ErrMismatch,
	KindTimeout:           ErrTimeout,
	KindInvalidDocument:   ErrInvalidDocument,
	KindProtectedDocument: ErrProtectedDocument,
	KindGeneration:        ErrGeneration,
}

var kindMessages = map[FailureKind]string{
	KindProcessing:        "Something went wrong while processing the document.",
	KindNoContent:         "No usable text could be found in the document.",
	KindEmbedding:         "The embedding service failed while indexing the document.",
	KindMismatch:          "The embedding service returned an unexpected number of vectors.",
	KindTimeout:           "Processing the document took too long and was cancelled.",
	KindInvalidDocument:   "The file is not a valid PDF or is corrupted.",
	KindProtectedDocument: "The PDF is password protected and cannot be read.",
	KindGeneration:        "The answer could not be generated.",
}

// Failure is the tagged error produced by the ingestion and query paths.
// The kind is decided where the failure is detected.
type Failure struct {
	Kind FailureKind
	Err  error
}

// NewFailure tags err with kind. A nil err reports the kind alone.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// Failuref builds a Failure from a formatted cause.
func Failuref(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (f *Failure) Error() string {
	sentinel := kindSentinels[f.Kind]
	if f.Err == nil {
		return sentinel.Error()
	}
	return fmt.Sprintf("%s: %v", sentinel, f.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{kindSentinels[f.Kind]}
	}
	return []error{kindSentinels[f.Kind], f.Err}
}

// Message is the human-readable text shown to the user.
func (f *Failure) Message() string {
	return kindMessages[f.Kind]
}

// KindOf returns the failure kind carried by err. Untagged errors are KindProcessing.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindProcessing
}

// AsFailure returns err as a Failure, tagging untagged errors with fallback.
func AsFailure(err error, fallback FailureKind) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewFailure(fallback, err)
}

// UserMessage renders err for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Message()
	}
	return kindMessages[KindProcessing]
}
