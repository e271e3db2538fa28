package client

// Result is the outcome of one Ask call: either accepted with a response
// body or failed with a reason.
type Result struct {
	ok      bool
	intent  string
	body    string
	failure string
}

// Accepted creates accepted result.
func Accepted(intent, body string) Result {
	return Result{ok: true, intent: intent, body: body}
}

// Failed creates failed result.
func Failed(reason string) Result {
	return Result{failure: reason}
}

// IsOK reports whether query was accepted.
func (r Result) IsOK() bool {
	return r.ok
}

// IsFailed reports whether query was rejected or could not be resolved.
func (r Result) IsFailed() bool {
	return !r.ok
}

// Intent returns resolved intent of accepted result.
func (r Result) Intent() string {
	return r.intent
}

// Body returns response payload of accepted result.
func (r Result) Body() string {
	return r.body
}

// Failure returns reason of failed result.
func (r Result) Failure() string {
	return r.failure
}

func (r Result) String() string {
	if r.ok {
		return "ok: " + r.body
	}
	return "failed: " + r.failure
}
