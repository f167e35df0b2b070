package request

// Validator checks request parameters before any network call is issued.
// It must be pure: no I/O, no side effects. A non-nil error's message becomes the
// ValidationError payload verbatim.
type Validator[P any] func(params P) error

// NoValidation accepts every input.
func NoValidation[P any]() Validator[P] {
	return func(P) error { return nil }
}

// Chain runs validators in order and returns the first failure.
func Chain[P any](validators ...Validator[P]) Validator[P] {
	return func(params P) error {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v(params); err != nil {
				return err
			}
		}
		return nil
	}
}
