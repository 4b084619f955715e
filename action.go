package marquee

// ActionKind selects the payload of an Action.
type ActionKind uint8

const (
	ActionNormal          ActionKind = iota // frame or event bytecode
	ActionInit                              // one-time sprite initialization bytecode
	ActionMethod                            // named method call on the target, e.g. onEnterFrame
	ActionNotifyListeners                   // broadcast to a system listener object
)

func (k ActionKind) String() string {
	switch k {
	case ActionNormal:
		return "normal"
	case ActionInit:
		return "init"
	case ActionMethod:
		return "method"
	case ActionNotifyListeners:
		return "notify_listeners"
	}
	return "unknown"
}

// System listener names used in ActionNotifyListeners.
const (
	ListenerMouse = "Mouse"
	ListenerKey   = "Key"
)

// Action is a deferred script invocation. Only the fields of its Kind are set.
type Action struct {
	Target Handle
	Kind   ActionKind

	// ActionNormal, ActionInit
	Bytecode []byte

	// ActionMethod: the method name. ActionNotifyListeners: the broadcast method.
	Method string

	// ActionNotifyListeners
	Listener string
	Args     []string

	// Unload actions run even if the target was removed after queueing.
	Unload bool
}

// ActionQueue is a FIFO of deferred actions.
type ActionQueue struct {
	actions []Action
	head    int
}

// NewActionQueue returns an empty queue.
func NewActionQueue() *ActionQueue {
	return &ActionQueue{actions: make([]Action, 0, 32)}
}

// Queue appends a to the back of the queue.
func (q *ActionQueue) Queue(a Action) {
	q.actions = append(q.actions, a)
}

// Pop removes and returns the front action.
func (q *ActionQueue) Pop() (Action, bool) {
	if q.head >= len(q.actions) {
		return Action{}, false
	}
	a := q.actions[q.head]
	q.actions[q.head] = Action{}
	q.head++
	if q.head == len(q.actions) {
		q.actions = q.actions[:0]
		q.head = 0
	}
	return a, true
}

// Len returns the number of pending actions.
func (q *ActionQueue) Len() int {
	return len(q.actions) - q.head
}

func (q *ActionQueue) each(fn func(a *Action)) {
	for i := q.head; i < len(q.actions); i++ {
		fn(&q.actions[i])
	}
}
