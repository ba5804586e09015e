package core

import (
	"sync"

	"github.com/spaghettifunk/orbis/engine/containers"
)

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01
	// Keyboard key pressed. Data is *KeyEvent.
	EVENT_CODE_KEY_PRESSED EventCode = 0x02
	// Keyboard key released. Data is *KeyEvent.
	EVENT_CODE_KEY_RELEASED EventCode = 0x03
	// Resized/resolution changed from the OS. Data is *SystemEvent.
	EVENT_CODE_RESIZED EventCode = 0x08
	// A watched asset changed on disk. Data is *AssetEvent.
	EVENT_CODE_ASSET_CHANGED EventCode = 0x09

	MAX_EVENT_CODE EventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Upper bound of events posted from other goroutines between two ProcessEvents calls.
const MAX_POSTED_EVENTS = 256

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type AssetEvent struct {
	Path string
}

// FnOnEvent handles an event. Returning true marks the event as handled
// and stops it from reaching the remaining listeners.
type FnOnEvent func(context EventContext) bool

// EventHandle identifies a registration so it can be removed later.
type EventHandle uint32

type registeredEvent struct {
	handle   EventHandle
	callback FnOnEvent
}

// State structure.
type eventSystemState struct {
	mu         sync.Mutex
	nextHandle EventHandle
	// Lookup table for event codes.
	registered [MAX_MESSAGE_CODES][]registeredEvent
	posted     *containers.RingQueue[EventContext]
}

/**
 * Event system internal state.
 */
var eventMu sync.Mutex
var eventState *eventSystemState = nil

func EventSystemInitialize() bool {
	eventMu.Lock()
	defer eventMu.Unlock()
	if eventState != nil {
		return false
	}
	eventState = &eventSystemState{
		nextHandle: 1,
		posted:     containers.NewRingQueue[EventContext](MAX_POSTED_EVENTS),
	}
	return true
}

func EventSystemShutdown() error {
	eventMu.Lock()
	defer eventMu.Unlock()
	// Any objects pointed to by the registrations should be destroyed on their own.
	eventState = nil
	return nil
}

func getEventState() *eventSystemState {
	eventMu.Lock()
	defer eventMu.Unlock()
	return eventState
}

/**
 * Register to listen for when events are sent with the provided code.
 * @param code The event code to listen for.
 * @param onEvent The callback invoked when the event code is fired.
 * @returns the handle of the registration, 0 when the system is not initialized.
 */
func EventRegister(code EventCode, onEvent FnOnEvent) EventHandle {
	state := getEventState()
	if state == nil || onEvent == nil {
		return 0
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	handle := state.nextHandle
	state.nextHandle++
	state.registered[code] = append(state.registered[code], registeredEvent{
		handle:   handle,
		callback: onEvent,
	})
	return handle
}

/**
 * Unregister from listening for when events are sent with the provided code.
 * @returns true if the registration was found and removed.
 */
func EventUnregister(code EventCode, handle EventHandle) bool {
	state := getEventState()
	if state == nil {
		return false
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	events := state.registered[code]
	for i := range events {
		if events[i].handle == handle {
			state.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	LogWarn("no registration %d found for event code %d", handle, code)
	return false
}

/**
 * Fires an event to listeners of the given code, on the calling goroutine.
 * If an event handler returns true, the event is considered handled and
 * is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func EventFire(context EventContext) bool {
	state := getEventState()
	if state == nil {
		return false
	}

	// copy so callbacks can register or unregister while being fired
	state.mu.Lock()
	events := make([]registeredEvent, len(state.registered[context.Type]))
	copy(events, state.registered[context.Type])
	state.mu.Unlock()

	for _, e := range events {
		if e.callback(context) {
			return true
		}
	}
	return false
}

/**
 * Queues an event to be fired by the next ProcessEvents call. Safe to call
 * from any goroutine.
 */
func EventPost(context EventContext) error {
	state := getEventState()
	if state == nil {
		return ErrUnknown
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.posted.Enqueue(context)
}

/**
 * Fires every posted event in the order it was posted. It must be
 * called from the main loop.
 * @returns the number of events processed.
 */
func ProcessEvents() int {
	state := getEventState()
	if state == nil {
		return 0
	}
	processed := 0
	for {
		state.mu.Lock()
		context, err := state.posted.Dequeue()
		state.mu.Unlock()
		if err != nil {
			return processed
		}
		EventFire(context)
		processed++
	}
}
