package recommend

import "errors"

// Kind classifies a failed invocation.
type Kind int

const (
	// KindInvalidArgument means the caller sent an unusable request.
	KindInvalidArgument Kind = iota + 1
	// KindInternal means the upstream call or its response failed.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid-argument"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Caller-facing messages. Internal causes never reach the caller.
const (
	MessageInvalidPrompt = `The function must be called with a string "prompt".`
	MessageAICallFailed  = "AI call failed"
)

// Error is the failure half of a Handle result. Message is safe to return
// to the caller; Err holds the diagnostic cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return "recommend: " + e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return "recommend: " + e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or zero.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

func invalidArgument(cause error) *Error {
	return &Error{Kind: KindInvalidArgument, Message: MessageInvalidPrompt, Err: cause}
}

func internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: MessageAICallFailed, Err: cause}
}
