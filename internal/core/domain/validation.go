package domain

// ValidationStatus is the outcome of validating a ValueSet for one index.
type ValidationStatus int

// Validation statuses, ordered from most to least admissible.
const (
	// ValidationValid admits the document unchanged.
	ValidationValid ValidationStatus = iota

	// ValidationFiltered admits a mutated document (fields or variants stripped).
	// A Filtered result with a nil ValueSet excludes the document from the index.
	ValidationFiltered

	// ValidationFailed rejects the document; an earlier copy must be retracted.
	ValidationFailed
)

// String returns the string representation.
func (s ValidationStatus) String() string {
	switch s {
	case ValidationValid:
		return "valid"
	case ValidationFiltered:
		return "filtered"
	case ValidationFailed:
		return "failed"
	default:
		return unknownDescription
	}
}

// ValidationResult pairs a status with the (possibly mutated) value set.
type ValidationResult struct {
	Status   ValidationStatus
	ValueSet *ValueSet
}

// Valid admits vs unchanged.
func Valid(vs ValueSet) ValidationResult {
	return ValidationResult{Status: ValidationValid, ValueSet: &vs}
}

// Filtered admits a mutated vs.
func Filtered(vs ValueSet) ValidationResult {
	return ValidationResult{Status: ValidationFiltered, ValueSet: &vs}
}

// Excluded is a Filtered result that carries no document.
func Excluded() ValidationResult {
	return ValidationResult{Status: ValidationFiltered}
}

// Failed rejects vs.
func Failed(vs ValueSet) ValidationResult {
	return ValidationResult{Status: ValidationFailed, ValueSet: &vs}
}

// Writable reports whether the result carries a document to write.
func (r ValidationResult) Writable() bool {
	return r.Status != ValidationFailed && r.ValueSet != nil
}

const unknownDescription = "Unknown"
