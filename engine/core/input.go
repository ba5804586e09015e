package core

import "sync"

// Key code definitions
type KeyCode uint16

const (
	KEY_UNKNOWN   KeyCode = 0x00
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	// Letters share their ASCII upper case value.
	KEY_A KeyCode = 0x41
	KEY_M KeyCode = 0x4D
	KEY_Q KeyCode = 0x51
	KEY_R KeyCode = 0x52
	KEY_S KeyCode = 0x53
	KEY_Z KeyCode = 0x5A
	// F keys are contiguous from F1.
	KEY_F1  KeyCode = 0x70
	KEY_F12 KeyCode = 0x7B

	KEYS_MAX_KEYS = 256
)

// Keyboard state structure
type KeyboardState struct {
	Keys [KEYS_MAX_KEYS]bool
}

// Input state structure that holds current and previous keyboard states
type InputState struct {
	mu               sync.Mutex
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
}

var inputMu sync.Mutex
var inputState *InputState = nil

func InputInitialize() error {
	inputMu.Lock()
	defer inputMu.Unlock()
	inputState = &InputState{}
	LogInfo("Input subsystem initialized.")
	return nil
}

func InputShutdown() error {
	inputMu.Lock()
	defer inputMu.Unlock()
	inputState = nil
	return nil
}

func getInputState() *InputState {
	inputMu.Lock()
	defer inputMu.Unlock()
	return inputState
}

// InputUpdate copies the current state to the previous one. Call it once per frame.
func InputUpdate(deltaTime float64) error {
	s := getInputState()
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.KeyboardPrevious = s.KeyboardCurrent
	s.mu.Unlock()
	return nil
}

// keyboard input
func InputIsKeyDown(key KeyCode) bool {
	s := getInputState()
	if s == nil || key >= KEYS_MAX_KEYS {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.KeyboardCurrent.Keys[key]
}

func InputWasKeyDown(key KeyCode) bool {
	s := getInputState()
	if s == nil || key >= KEYS_MAX_KEYS {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.KeyboardPrevious.Keys[key]
}

// InputProcessKey records a key transition and fires the matching event.
func InputProcessKey(key KeyCode, pressed bool) error {
	s := getInputState()
	if s == nil || key >= KEYS_MAX_KEYS {
		return nil
	}

	s.mu.Lock()
	changed := s.KeyboardCurrent.Keys[key] != pressed
	s.KeyboardCurrent.Keys[key] = pressed
	s.mu.Unlock()

	// Only handle this if the state actually changed.
	if !changed {
		return nil
	}

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}

	// Fire off an event for immediate processing.
	EventFire(EventContext{
		Type: code,
		Data: &KeyEvent{
			KeyCode: key,
		},
	})
	return nil
}
