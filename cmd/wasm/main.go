//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"syscall/js"

	"github.com/cardstudio/cardstudio/internal/editor"
	"github.com/cardstudio/cardstudio/internal/protocol"
	"github.com/cardstudio/cardstudio/internal/render"
)

var (
	ctrl *editor.Controller
	// pending is the save handed to JS by prepareSave, until finishSave.
	pending *editor.SaveRequest
)

func main() {
	ctrl = editor.New(editor.Options{})

	// Create the editor API object
	cardEditor := js.Global().Get("Object").New()

	// --- Commands (frontend → controller) ---
	cardEditor.Set("send", js.FuncOf(send))
	cardEditor.Set("load", js.FuncOf(load))
	cardEditor.Set("setCardId", js.FuncOf(setCardID))
	cardEditor.Set("prepareSave", js.FuncOf(prepareSave))
	cardEditor.Set("finishSave", js.FuncOf(finishSave))

	// --- Queries (frontend ← controller) ---
	cardEditor.Set("render", js.FuncOf(renderCommands))
	cardEditor.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	cardEditor.Set("getState", js.FuncOf(getState))
	cardEditor.Set("getDocument", js.FuncOf(getDocument))
	cardEditor.Set("isDirty", js.FuncOf(isDirty))

	// Register on global scope
	js.Global().Set("cardEditor", cardEditor)

	// Signal that WASM is ready
	js.Global().Set("cardEditorReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

// send applies one protocol message given as JSON and returns the new state.
// "save" is true when the message asked for a save, which JS performs with
// prepareSave and finishSave.
func send(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing message JSON"})
	}

	var msg protocol.Message
	if err := json.Unmarshal([]byte(args[0].String()), &msg); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	save, err := protocol.Apply(ctrl, msg)
	result := map[string]interface{}{
		"state": stateJSON(),
		"save":  save,
	}
	if err != nil {
		result["error"] = err.Error()
	}
	return js.ValueOf(result)
}

func load(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	pending = nil
	if err := ctrl.Load([]byte(args[0].String())); err != nil {
		// The controller fell back to an empty design; report why.
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func setCardID(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return nil
	}
	ctrl.SetCardID(args[0].String())
	return nil
}

func prepareSave(this js.Value, args []js.Value) interface{} {
	if pending != nil {
		return js.ValueOf(map[string]interface{}{"error": "save already in flight"})
	}

	req, err := ctrl.PrepareSave()
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	pending = &req

	return js.ValueOf(map[string]interface{}{
		"cardId": req.CardID,
		"data":   string(req.Data),
	})
}

// finishSave takes the card id the store answered with, and an error
// message when the save failed.
func finishSave(this js.Value, args []js.Value) interface{} {
	if pending == nil {
		return nil
	}
	req := *pending
	pending = nil

	var cardID string
	if len(args) > 0 && args[0].Type() == js.TypeString {
		cardID = args[0].String()
	}
	var err error
	if len(args) > 1 && args[1].Type() == js.TypeString && args[1].String() != "" {
		err = errors.New(args[1].String())
	}
	ctrl.FinishSave(req, cardID, err)
	return nil
}

// --- Query Handlers ---

// renderCommands returns only the draw list, for repainting during a
// gesture without the rest of the state.
func renderCommands(this js.Value, args []js.Value) interface{} {
	out, err := render.DrawCommandsToJSON(render.Compile(ctrl.Scene(), ctrl.Canvas()))
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(out)
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	graph := render.Build(ctrl.Scene(), ctrl.Canvas())
	return js.ValueOf(render.RectToJSON(render.SelectionBounds(graph, ctrl.Selection())))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(stateJSON())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	data, err := ctrl.Document().Marshal()
	if err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(string(data))
}

func isDirty(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ctrl.Dirty())
}

func stateJSON() string {
	data, err := json.Marshal(ctrl.View())
	if err != nil {
		return "{}"
	}
	return string(data)
}
