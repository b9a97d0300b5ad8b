package api

import "fmt"

// InvalidParameterError indicates a malformed numeric query parameter
type InvalidParameterError struct {
	Param string
	Value string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %s", e.Value, e.Param)
}
