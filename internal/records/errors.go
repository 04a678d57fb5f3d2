package records

import "fmt"

// KeyError attaches the join key of the record being processed to an error.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("record %s: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// WithKey wraps err with the record's join key. A nil err stays nil.
func WithKey(key string, err error) error {
	if err == nil {
		return nil
	}
	return &KeyError{Key: key, Err: err}
}
