package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"

	"github.com/phanxgames/marquee"
)

// InteractionEventType is the Donburi event type for button interactions.
var InteractionEventType = events.NewEventType[marquee.InteractionEvent]()

// Button mirrors one on-stage button.
type Button struct {
	Handle      uint64
	CharacterID uint16
	Name        string
	Hovered     bool
	Pressed     bool
	// LastKey is the key of the most recent key press, 0 if none.
	LastKey marquee.ButtonKeyCode
}

// ButtonComponent holds the Button data of mirrored entities.
var ButtonComponent = donburi.NewComponentType[Button]()

var buttonQuery = donburi.NewQuery(filter.Contains(ButtonComponent))

// DonburiStore is a marquee.EntityStore backed by a Donburi world.
type DonburiStore struct {
	world    donburi.World
	entities map[uint64]donburi.Entity
}

// NewDonburiStore creates an EntityStore for world. Interaction events are
// queued on InteractionEventType and delivered by ProcessEvents.
func NewDonburiStore(world donburi.World) *DonburiStore {
	return &DonburiStore{world: world, entities: make(map[uint64]donburi.Entity)}
}

func (s *DonburiStore) EmitEvent(event marquee.InteractionEvent) {
	b := s.button(event)
	switch event.Type {
	case marquee.ButtonEventRollOver:
		b.Hovered = true
	case marquee.ButtonEventRollOut:
		b.Hovered = false
		b.Pressed = false
	case marquee.ButtonEventPress:
		b.Pressed = true
	case marquee.ButtonEventRelease:
		b.Pressed = false
	case marquee.ButtonEventKeyPress:
		b.LastKey = event.Key
	}
	InteractionEventType.Publish(s.world, event)
}

// button returns the mirrored state for the event's button, creating the
// entity on first sight.
func (s *DonburiStore) button(event marquee.InteractionEvent) *Button {
	e, ok := s.entities[event.EntityID]
	if !ok || !s.world.Valid(e) {
		e = s.world.Create(ButtonComponent)
		s.entities[event.EntityID] = e
		*ButtonComponent.Get(s.world.Entry(e)) = Button{
			Handle:      event.EntityID,
			CharacterID: uint16(event.CharacterID),
			Name:        event.Name,
		}
	}
	return ButtonComponent.Get(s.world.Entry(e))
}

// Entity returns the entity mirroring the button with the given handle.
func (s *DonburiStore) Entity(handle uint64) (donburi.Entity, bool) {
	e, ok := s.entities[handle]
	if !ok || !s.world.Valid(e) {
		return 0, false
	}
	return e, true
}

// Forget removes the entity mirroring handle, e.g. once the button left
// the stage.
func (s *DonburiStore) Forget(handle uint64) {
	e, ok := s.entities[handle]
	if !ok {
		return
	}
	delete(s.entities, handle)
	if s.world.Valid(e) {
		s.world.Remove(e)
	}
}

// EachButton calls fn for every mirrored button in world.
func EachButton(world donburi.World, fn func(b *Button)) {
	buttonQuery.Each(world, func(entry *donburi.Entry) {
		fn(ButtonComponent.Get(entry))
	})
}
