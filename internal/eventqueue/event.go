// Package eventqueue implements the host-to-guest input/redraw event
// queue: a single-producer, single-consumer FIFO of Events, and the wire
// format guest Java code expects when it drains the queue a word at a
// time.
package eventqueue

import "github.com/palmrunner/palmrunner/internal/wieerr"

// Kind distinguishes the variants of Event.
type Kind int

const (
	KindRedraw Kind = iota
	KindKeyDown
	KindKeyUp
	KindUpdate
)

// KeyCode is the platform-independent key identifier carried by KeyDown
// and KeyUp events.
type KeyCode int

const (
	KeyUp KeyCode = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyOK
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyHash
	KeyStar
)

// Event is a tagged union: Redraw and Update carry no payload, KeyDown and
// KeyUp carry a KeyCode.
type Event struct {
	Kind Kind
	Key  KeyCode
}

func Redraw() Event                { return Event{Kind: KindRedraw} }
func Update() Event                { return Event{Kind: KindUpdate} }
func KeyDownEvent(k KeyCode) Event { return Event{Kind: KindKeyDown, Key: k} }
func KeyUpEvent(k KeyCode) Event   { return Event{Kind: KindKeyUp, Key: k} }

// wipi event kinds (event_kind word of the 4-word wire record).
const (
	wipiKeyEvent     = 1
	wipiRepaintEvent = 41
)

// wipi keyboard event subkinds.
const (
	wipiKeyPressed  = 1
	wipiKeyReleased = 2
)

// wipiKeyCode maps a platform KeyCode to the int32 value WIPI guest code
// expects in the third wire word.
func wipiKeyCode(k KeyCode) int32 {
	switch k {
	case KeyUp:
		return -1
	case KeyDown:
		return -2
	case KeyLeft:
		return -3
	case KeyRight:
		return -4
	case KeyOK:
		return -5
	case KeyHash:
		return 35
	case KeyStar:
		return 42
	default:
		// Key0..Key9 map onto their ASCII digit values.
		return int32('0') + int32(k-Key0)
	}
}

// keyCodeFromWipi is the inverse of wipiKeyCode, used when a host frontend
// only has a WIPI-style raw code (e.g. a replayed trace) to work from.
func keyCodeFromWipi(raw int32) (KeyCode, error) {
	switch raw {
	case -1:
		return KeyUp, nil
	case -2:
		return KeyDown, nil
	case -3:
		return KeyLeft, nil
	case -4:
		return KeyRight, nil
	case -5:
		return KeyOK, nil
	case 35:
		return KeyHash, nil
	case 42:
		return KeyStar, nil
	}
	if raw >= '0' && raw <= '9' {
		return Key0 + KeyCode(raw-'0'), nil
	}
	return 0, wieerr.New(wieerr.KindProtocolViolation, "unrecognized WIPI key code %d", raw)
}

// ToWire renders e as the 4 int32 words guest code expects from
// EventQueue.getNextEvent: [event_kind, subkind, keycode, 0].
func (e Event) ToWire() [4]int32 {
	switch e.Kind {
	case KindRedraw:
		return [4]int32{wipiRepaintEvent, 0, 0, 0}
	case KindKeyDown:
		return [4]int32{wipiKeyEvent, wipiKeyPressed, wipiKeyCode(e.Key), 0}
	case KindKeyUp:
		return [4]int32{wipiKeyEvent, wipiKeyReleased, wipiKeyCode(e.Key), 0}
	default:
		// Update is a host-internal pacing signal, never observed by guest
		// code through the wire format.
		return [4]int32{0, 0, 0, 0}
	}
}

// FromWire parses the 4-word wire record back into an Event, the reverse
// direction the original used an unchecked transmute for (spec's REDESIGN
// FLAGS calls for replacing that with a checked parse).
func FromWire(words [4]int32) (Event, error) {
	switch words[0] {
	case wipiRepaintEvent:
		return Redraw(), nil
	case wipiKeyEvent:
		key, err := keyCodeFromWipi(words[2])
		if err != nil {
			return Event{}, err
		}
		switch words[1] {
		case wipiKeyPressed:
			return KeyDownEvent(key), nil
		case wipiKeyReleased:
			return KeyUpEvent(key), nil
		default:
			return Event{}, wieerr.New(wieerr.KindProtocolViolation, "unrecognized keyboard event subkind %d", words[1])
		}
	default:
		return Event{}, wieerr.New(wieerr.KindProtocolViolation, "unrecognized event kind %d", words[0])
	}
}
