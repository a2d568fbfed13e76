package errcode

// Integer codes carried in notify messages so clients can react without
// parsing error strings.
// - 0: no error
// - 4xxx: caller-side problems (bad input, malformed analysis payload)
// - 5xxx: system errors (storage, conversion, analysis transport)
const (
	OK              = 0
	InvalidInput    = 4000
	MalformedResult = 4001
	SystemError     = 5000
)
