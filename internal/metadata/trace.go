package metadata

// Frame is one raw call frame as captured by the runtime
type Frame struct {
	// Method is empty when the runtime could not identify the frame's method
	Method MethodID
	File   string
	Line   int
	Column int
	// Raw is the runtime's own text for the frame, used when nothing resolves
	Raw string
}

// HasMethod reports whether the frame carries a method identity
func (f Frame) HasMethod() bool {
	return f.Method != ""
}

// Trace is an innermost-first sequence of frames. Captured holds traces
// recorded before the exception was rethrown; their frames are older
// than the throw site and come first when flattened.
type Trace struct {
	Frames   []Frame
	Captured []Trace
}

// Flatten returns every frame in innermost-to-outermost order, captured traces first
func (t Trace) Flatten() []Frame {
	var out []Frame
	t.appendTo(&out)
	return out
}

func (t Trace) appendTo(out *[]Frame) {
	for _, captured := range t.Captured {
		captured.appendTo(out)
	}
	*out = append(*out, t.Frames...)
}

// Len returns the total number of frames including captured traces
func (t Trace) Len() int {
	n := len(t.Frames)
	for _, captured := range t.Captured {
		n += captured.Len()
	}
	return n
}

// Exception is the exception-like input to the assembler
type Exception struct {
	TypeName string
	Message  string
	Trace    Trace

	// Inner is the wrapped cause, if any
	Inner *Exception
	// Aggregated holds the simultaneously raised causes of an aggregate exception
	Aggregated []*Exception
}

// Causes returns aggregated exceptions when present, otherwise the single inner exception
func (e *Exception) Causes() []*Exception {
	if len(e.Aggregated) > 0 {
		return e.Aggregated
	}
	if e.Inner != nil {
		return []*Exception{e.Inner}
	}
	return nil
}

// IsAggregate reports whether the exception carries aggregated causes
func (e *Exception) IsAggregate() bool {
	return len(e.Aggregated) > 0
}
