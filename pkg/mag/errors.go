package mag

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used for simple equality-style checks.
var (
	// ErrInvalidRecord indicates an input row could not be decoded.
	ErrInvalidRecord = errors.New("contammap: invalid record")

	// ErrMotifParse indicates a (sequence, mod type, position) triple does not
	// describe a valid motif.
	ErrMotifParse = errors.New("contammap: invalid motif")

	// ErrNoBins indicates the contig-bin input produced no bins.
	ErrNoBins = errors.New("contammap: no bins collected")

	// ErrQualityOverlap indicates the quality input shares no bin name with the
	// contig-bin input.
	ErrQualityOverlap = errors.New("contammap: no quality overlap")

	// ErrContigOverlap indicates the methylation and contig-bin inputs share no
	// contig.
	ErrContigOverlap = errors.New("contammap: no contig overlap")

	// ErrBinNotFound indicates a requested bin is not in the registry.
	ErrBinNotFound = errors.New("contammap: bin not found")

	// ErrInvalidID indicates a bin or contig id that cannot be stored.
	ErrInvalidID = errors.New("contammap: invalid id")

	// ErrMetadataMismatch indicates an assignment update does not name the
	// same contigs as the stored bin.
	ErrMetadataMismatch = errors.New("contammap: metadata mismatch")
)

// RecordError describes a malformed input row. Line is 1-based and counts the
// header row.
type RecordError struct {
	Source string
	Line   int
	Field  string
	Value  string
	Cause  error
}

func (e *RecordError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "field %q: ", e.Field)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, "value %q: ", e.Value)
	}
	if e.Cause != nil {
		b.WriteString(e.Cause.Error())
	} else {
		b.WriteString("invalid record")
	}
	return b.String()
}

func (e *RecordError) Is(target error) bool { return target == ErrInvalidRecord }

func (e *RecordError) Unwrap() error { return e.Cause }

// NewRecordError constructs a RecordError.
func NewRecordError(source string, line int, field, value string, cause error) error {
	return &RecordError{Source: source, Line: line, Field: field, Value: value, Cause: cause}
}

// IsInvalidRecord reports whether err is (or wraps) a malformed-record condition.
func IsInvalidRecord(err error) bool {
	return errors.Is(err, ErrInvalidRecord)
}

// MotifParseError carries the raw values of a motif that failed validation.
type MotifParseError struct {
	Sequence string
	ModType  string
	Position int
	Reason   string
}

func (e *MotifParseError) Error() string {
	return fmt.Sprintf("wrong motif mod: %s_%s_%d: %s", e.Sequence, e.ModType, e.Position, e.Reason)
}

func (e *MotifParseError) Is(target error) bool { return target == ErrMotifParse }

func (e *MotifParseError) Unwrap() error { return ErrMotifParse }

// IsMotifParse reports whether err is (or wraps) a motif validation failure.
func IsMotifParse(err error) bool {
	return errors.Is(err, ErrMotifParse)
}

// NoBinsError is returned when no contig-bin pair produced a bin.
type NoBinsError struct {
	Records int
}

func (e *NoBinsError) Error() string {
	return fmt.Sprintf("no bins were collected from %d contig-bin records", e.Records)
}

func (e *NoBinsError) Is(target error) bool { return target == ErrNoBins }

func (e *NoBinsError) Unwrap() error { return ErrNoBins }

// IsNoBins reports whether err is (or wraps) a no-bins condition.
func IsNoBins(err error) bool {
	return errors.Is(err, ErrNoBins)
}

// QualityOverlapError is returned when the quality input names no known bin.
type QualityOverlapError struct {
	QualityBins int
	Bins        int
}

func (e *QualityOverlapError) Error() string {
	return fmt.Sprintf(
		"none of the %d bins in the quality file match the %d bins in the contig-bin file",
		e.QualityBins, e.Bins,
	)
}

func (e *QualityOverlapError) Is(target error) bool { return target == ErrQualityOverlap }

func (e *QualityOverlapError) Unwrap() error { return ErrQualityOverlap }

// IsQualityOverlap reports whether err is (or wraps) a quality-overlap failure.
func IsQualityOverlap(err error) bool {
	return errors.Is(err, ErrQualityOverlap)
}

// ContigOverlapError is returned when no binned contig has methylation data.
type ContigOverlapError struct {
	BinnedContigs     int
	MethylatedContigs int
}

func (e *ContigOverlapError) Error() string {
	return fmt.Sprintf(
		"there are no contig matches between contig_bin (%d contigs) and methylation data (%d contigs)",
		e.BinnedContigs, e.MethylatedContigs,
	)
}

func (e *ContigOverlapError) Is(target error) bool { return target == ErrContigOverlap }

func (e *ContigOverlapError) Unwrap() error { return ErrContigOverlap }

// IsContigOverlap reports whether err is (or wraps) a contig-overlap failure.
func IsContigOverlap(err error) bool {
	return errors.Is(err, ErrContigOverlap)
}

// BinNotFoundError is a typed error that carries the missing bin id.
type BinNotFoundError struct {
	Bin BinID
}

func (e *BinNotFoundError) Error() string { return fmt.Sprintf("bin %q not found", string(e.Bin)) }

func (e *BinNotFoundError) Is(target error) bool { return target == ErrBinNotFound }

func (e *BinNotFoundError) Unwrap() error { return ErrBinNotFound }

// NewBinNotFoundError constructs a typed BinNotFoundError.
func NewBinNotFoundError(bin BinID) error {
	return &BinNotFoundError{Bin: bin}
}

// IsBinNotFound reports whether err is (or wraps) a bin-not-found condition.
func IsBinNotFound(err error) bool {
	return errors.Is(err, ErrBinNotFound)
}

// MetadataMismatchError is returned by BinRegistry.Update when the payload
// names a different contig set than the stored bin.
type MetadataMismatchError struct {
	Bin      BinID
	Stored   int
	Received int
}

func (e *MetadataMismatchError) Error() string {
	if e.Stored == e.Received {
		return fmt.Sprintf(
			"contigs received differ from the %d contigs in bin %q; change bin name to store a new contig set",
			e.Stored, string(e.Bin),
		)
	}
	return fmt.Sprintf(
		"mismatch between contigs received (%d) and contigs in bin %q (%d); change bin name to store a new contig set",
		e.Received, string(e.Bin), e.Stored,
	)
}

func (e *MetadataMismatchError) Is(target error) bool { return target == ErrMetadataMismatch }

func (e *MetadataMismatchError) Unwrap() error { return ErrMetadataMismatch }

// IsMetadataMismatch reports whether err is (or wraps) a metadata mismatch.
func IsMetadataMismatch(err error) bool {
	return errors.Is(err, ErrMetadataMismatch)
}

// InvalidIDError describes a bin or contig id rejected by an update. Ids
// must be non-empty and free of tabs and line breaks.
type InvalidIDError struct {
	Field string
	Value string
}

func (e *InvalidIDError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: empty id", e.Field)
	}
	return fmt.Sprintf("invalid %s %q: ids may not contain tabs or line breaks", e.Field, e.Value)
}

func (e *InvalidIDError) Is(target error) bool { return target == ErrInvalidID }

func (e *InvalidIDError) Unwrap() error { return ErrInvalidID }

// IsInvalidID reports whether err is (or wraps) an invalid id condition.
func IsInvalidID(err error) bool {
	return errors.Is(err, ErrInvalidID)
}

// validateID fails for ids the assignment file cannot hold.
func validateID(field, id string) error {
	if id == "" || strings.ContainsAny(id, "\t\r\n") {
		return &InvalidIDError{Field: field, Value: id}
	}
	return nil
}
