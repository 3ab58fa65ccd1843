package common

// WipeByteArray zeroes the given slice in place. Use it to scrub secrets
// (passwords, tokens) once they are no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
