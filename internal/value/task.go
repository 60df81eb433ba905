package value

// Task is a Value of kind Map carrying the mandatory "cmd" field and the
// optional "line"/"traceback_label" fields the loader and analyzer rely on.
// Tasks are values: sub-task containers hold them by value and are
// traversed recursively.
type Task struct {
	Fields *Map
}

func NewTask(cmd string) *Task {
	m := NewMap()
	m.Set("cmd", Str(cmd))
	return &Task{Fields: m}
}

func (t *Task) Cmd() string {
	v, ok := t.Fields.Get("cmd")
	if !ok {
		return ""
	}
	s, _ := v.String()
	return s
}

func (t *Task) Line() (int, bool) {
	v, ok := t.Fields.Get("line")
	if !ok {
		return 0, false
	}
	i, isInt := v.Int64()
	return int(i), isInt
}

func (t *Task) TracebackLabel() (string, bool) {
	v, ok := t.Fields.Get("traceback_label")
	if !ok {
		return "", false
	}
	s, ok := v.String()
	return s, ok
}

// Get returns a field by name.
func (t *Task) Get(name string) (Value, bool) {
	return t.Fields.Get(name)
}

// Set stores a field by name.
func (t *Task) Set(name string, v Value) {
	t.Fields.Set(name, v)
}

// ToValue wraps the task as a plain Value for recursive walkers.
func (t *Task) ToValue() Value {
	return MapV(t.Fields)
}

// TaskFromValue extracts a Task view over a Map value. ok is false if v is
// not a map or has no string "cmd" field.
func TaskFromValue(v Value) (*Task, bool) {
	m, ok := v.Map()
	if !ok {
		return nil, false
	}
	cmdV, ok := m.Get("cmd")
	if !ok {
		return nil, false
	}
	if _, ok := cmdV.String(); !ok {
		return nil, false
	}
	return &Task{Fields: m}, true
}

// Clone deep-copies the task, so changes to the copy leave the original's
// fields untouched.
func (t *Task) Clone() *Task {
	return &Task{Fields: t.Fields.Clone()}
}
