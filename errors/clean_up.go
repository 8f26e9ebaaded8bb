package errors

import "fmt"

// CleanUp is defer-able syntactic sugar that calls f and reports an error, if
// any, to *err. Pass the caller's named return error. Example usage:
//
//	func processFile(filename string) (_ int, err error) {
//	  f, err := os.Open(filename)
//	  if err != nil { ... }
//	  defer errors.CleanUp(f.Close, &err)
//	  ...
//	}
//
// If the caller returns with its own error, any error from cleanUp is
// chained onto it rather than discarded. This is the pattern Array.Close
// uses to flush and release the file handle cache while still surfacing the
// first error encountered.
func CleanUp(cleanUp func() error, dst *error) {
	addErr(cleanUp(), dst)
}

func addErr(err2 error, dst *error) {
	if err2 == nil {
		return
	}
	if *dst == nil {
		*dst = err2
		return
	}
	*dst = E(*dst, fmt.Sprintf("second error in close: %v", err2))
}
