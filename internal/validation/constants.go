package validation

const (
	// PIN format
	MinPinLength = 4
	MaxPinLength = 6

	// String lengths
	MaxDescriptionLength = 255
	MaxReferenceLength   = 40

	DefaultHistoryLimit = 20
)
