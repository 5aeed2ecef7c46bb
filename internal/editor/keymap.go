package editor

import "strings"

// KeyEvent is a normalized key press. Key uses DOM KeyboardEvent.key names
// ("z", "Delete", "ArrowLeft", "Escape", ...). Ctrl covers Cmd on macOS.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
	// TextFocus is set while a text field has focus; shortcuts are off
	// then so typing is not hijacked.
	TextFocus bool `json:"textFocus"`
}

// Command is a keyboard action.
type Command string

const (
	CmdUndo       Command = "undo"
	CmdRedo       Command = "redo"
	CmdSelectAll  Command = "select-all"
	CmdDelete     Command = "delete"
	CmdDuplicate  Command = "duplicate"
	CmdGroup      Command = "group"
	CmdUngroup    Command = "ungroup"
	CmdToggleSnap Command = "toggle-snap"
	CmdNudgeLeft  Command = "nudge-left"
	CmdNudgeRight Command = "nudge-right"
	CmdNudgeUp    Command = "nudge-up"
	CmdNudgeDown  Command = "nudge-down"
	CmdEscape     Command = "escape"
	CmdSave       Command = "save"
)

type chord struct {
	key   string
	ctrl  bool
	shift bool
}

var keymap = map[chord]Command{
	{"z", true, false}:          CmdUndo,
	{"z", true, true}:           CmdRedo,
	{"y", true, false}:          CmdRedo,
	{"a", true, false}:          CmdSelectAll,
	{"delete", false, false}:    CmdDelete,
	{"backspace", false, false}: CmdDelete,
	{"d", true, false}:          CmdDuplicate,
	{"g", true, false}:          CmdGroup,
	{"g", true, true}:           CmdUngroup,
	{"g", false, false}:         CmdToggleSnap,
	{"escape", false, false}:    CmdEscape,
	{"s", true, false}:          CmdSave,
}

var arrows = map[string]Command{
	"arrowleft":  CmdNudgeLeft,
	"arrowright": CmdNudgeRight,
	"arrowup":    CmdNudgeUp,
	"arrowdown":  CmdNudgeDown,
}

// Lookup maps a key event to its command. Arrow keys nudge with or
// without shift; everything else needs the exact modifier chord.
func Lookup(ev KeyEvent) (Command, bool) {
	if ev.TextFocus || ev.Alt {
		return "", false
	}
	key := strings.ToLower(ev.Key)
	if cmd, ok := arrows[key]; ok && !ev.Ctrl {
		return cmd, true
	}
	cmd, ok := keymap[chord{key, ev.Ctrl, ev.Shift}]
	return cmd, ok
}

// Key runs the shortcut for ev and reports which command it was. CmdSave is
// returned but not run: saving needs a store and a context, so the caller
// performs it.
func (c *Controller) Key(ev KeyEvent) (Command, bool) {
	cmd, ok := Lookup(ev)
	if !ok {
		return "", false
	}
	step := NudgeFine
	if ev.Shift {
		step = NudgeCoarse
	}
	switch cmd {
	case CmdUndo:
		c.Undo()
	case CmdRedo:
		c.Redo()
	case CmdSelectAll:
		c.SelectAll()
	case CmdDelete:
		c.DeleteSelection()
	case CmdDuplicate:
		c.Duplicate()
	case CmdGroup:
		c.Group()
	case CmdUngroup:
		c.Ungroup()
	case CmdToggleSnap:
		c.ToggleSnap()
	case CmdNudgeLeft:
		c.Nudge(-step, 0)
	case CmdNudgeRight:
		c.Nudge(step, 0)
	case CmdNudgeUp:
		c.Nudge(0, -step)
	case CmdNudgeDown:
		c.Nudge(0, step)
	case CmdEscape:
		c.Escape()
	}
	return cmd, true
}
