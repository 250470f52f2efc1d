package schema

// Machine codes attached to individual validation failures.
const (
	CodeRequired = "required"
	CodeType     = "type"
	CodeChoice   = "choice"
	CodeRange    = "range"
	CodeLength   = "length"
	CodeExists   = "exists"
)

// FieldError is one violated constraint on one field path.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorSet collects every violated constraint across a submission, keyed by
// dotted field path (e.g. "fields.mileage"). Insertion order of paths is
// preserved so responses and logs are stable.
type ErrorSet struct {
	paths  []string
	errors map[string][]FieldError
}

func NewErrorSet() *ErrorSet {
	return &ErrorSet{
		errors: make(map[string][]FieldError),
	}
}

func (e *ErrorSet) Add(path, code, message string) {
	if _, ok := e.errors[path]; !ok {
		e.paths = append(e.paths, path)
	}
	e.errors[path] = append(e.errors[path], FieldError{Code: code, Message: message})
}

func (e *ErrorSet) Empty() bool {
	return len(e.paths) == 0
}

// Has reports whether any error was recorded for the given path.
func (e *ErrorSet) Has(path string) bool {
	_, ok := e.errors[path]
	return ok
}

// Get returns the errors recorded for the given path, in insertion order.
func (e *ErrorSet) Get(path string) []FieldError {
	return e.errors[path]
}

// Messages flattens the set into the path -> messages map used by the HTTP
// error envelope.
func (e *ErrorSet) Messages() map[string][]string {
	out := make(map[string][]string, len(e.paths))
	for _, path := range e.paths {
		for _, fe := range e.errors[path] {
			out[path] = append(out[path], fe.Message)
		}
	}
	return out
}
