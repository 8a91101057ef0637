package service

// Result is the business outcome of an operation. Anything other than Ok
// means the operation was skipped and state is unchanged.
type Result int

const (
	Ok Result = iota
	Unauthenticated
	Forbidden
	NotFound
	Invalid
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}
