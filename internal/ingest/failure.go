package ingest

import "errors"

// FailureKind classifies whole-batch pipeline failures. Per-row problems
// (bad dates, bad coordinates, no match) never produce a Failure; they
// degrade the affected field and are counted in Stats.
type FailureKind string

const (
	// SourceUnavailable: an input could not be opened or parsed at all.
	SourceUnavailable FailureKind = "source_unavailable"
	// NoUsableRows: inputs opened but nothing survived parsing.
	NoUsableRows FailureKind = "no_usable_rows"
	// ExternalAPIError: the open-data API returned no usable response.
	ExternalAPIError FailureKind = "external_api_error"
)

// Failure is the diagnostic paired with a nil result on whole-batch
// conditions.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// KindOf extracts the failure kind from a pipeline error, or "" for errors
// that are not batch failures.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
