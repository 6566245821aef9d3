package validator

// Validator validates annotated structs and reports failures per field.
type Validator interface {
	// Validate returns nil when data passes, or an error describing the
	// failing fields (V10ValidationError for the v10 implementation).
	Validate(data any) error
}
