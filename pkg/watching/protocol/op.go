package protocol

// Op represents an operation reported by a native watcher.
type Op uint8

const (
	// OpGiveUp indicates that the watcher can't continue operating.
	OpGiveUp Op = iota + 1
	// OpReset indicates that all roots must be invalidated.
	OpReset
	// OpUnwatchable reports roots that the watcher can't watch.
	OpUnwatchable
	// OpRemap reports aliases discovered between original and canonical paths.
	OpRemap
	// OpMessage carries a diagnostic message for the user.
	OpMessage
	// OpCreate indicates that a path was created.
	OpCreate
	// OpDelete indicates that a path was deleted.
	OpDelete
	// OpStats indicates that a path's metadata changed.
	OpStats
	// OpChange indicates that a path's content changed.
	OpChange
	// OpDirty indicates that a directory's listing changed.
	OpDirty
	// OpRecursiveDirty indicates that a whole subtree must be considered
	// changed.
	OpRecursiveDirty
)

// opNames maps operations to their wire representations.
var opNames = map[Op]string{
	OpGiveUp:         "GIVEUP",
	OpReset:          "RESET",
	OpUnwatchable:    "UNWATCHEABLE",
	OpRemap:          "REMAP",
	OpMessage:        "MESSAGE",
	OpCreate:         "CREATE",
	OpDelete:         "DELETE",
	OpStats:          "STATS",
	OpChange:         "CHANGE",
	OpDirty:          "DIRTY",
	OpRecursiveDirty: "RECDIRTY",
}

// namesToOps is the inverse of opNames.
var namesToOps map[string]Op

func init() {
	namesToOps = make(map[string]Op, len(opNames))
	for op, name := range opNames {
		namesToOps[name] = op
	}
}

// ParseOp converts a wire token to an operation. It returns false if the token
// isn't a known operation.
func ParseOp(token string) (Op, bool) {
	op, ok := namesToOps[token]
	return op, ok
}

// String returns the wire representation of the operation.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// arguments describes the argument lines expected after an operation token.
type arguments uint8

const (
	// argumentsNone indicates that no argument lines follow.
	argumentsNone arguments = iota
	// argumentsPath indicates that a single path line follows.
	argumentsPath
	// argumentsText indicates that a single free-form line follows.
	argumentsText
	// argumentsPathList indicates that path lines follow until a terminator.
	argumentsPathList
)

// arguments returns the argument shape for the operation.
func (o Op) arguments() arguments {
	switch o {
	case OpGiveUp, OpReset:
		return argumentsNone
	case OpMessage:
		return argumentsText
	case OpUnwatchable, OpRemap:
		return argumentsPathList
	default:
		return argumentsPath
	}
}

// IsChange returns whether or not the operation is a content or metadata
// change subject to repetition suppression.
func (o Op) IsChange() bool {
	return o == OpChange || o == OpStats
}
