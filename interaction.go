package marquee

import "github.com/phanxgames/marquee/swf"

// EntityStore is the interface for optional ECS integration.
// When set on a Player, button interaction events are forwarded to the ECS.
type EntityStore interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent carries button interaction data for the ECS bridge.
type InteractionEvent struct {
	Type        ButtonEventType
	EntityID    uint64 // the button's Handle
	CharacterID swf.CharacterID
	Name        string
	GlobalX     float64 // stage pixels
	GlobalY     float64
	LocalX      float64 // button-local pixels
	LocalY      float64
	Key         ButtonKeyCode // ButtonEventKeyPress
}

func (ctx *UpdateContext) emitInteraction(n *Node, ev ButtonEvent) {
	store := ctx.player.store
	if store == nil {
		return
	}
	mouse := ctx.player.mousePos
	lx, ly := ctx.arena.globalToLocal(n, mouse.X, mouse.Y)
	store.EmitEvent(InteractionEvent{
		Type:        ev.Type,
		EntityID:    uint64(n.handle),
		CharacterID: n.CharacterID,
		Name:        n.Name,
		GlobalX:     mouse.X / swf.TwipsPerPixel,
		GlobalY:     mouse.Y / swf.TwipsPerPixel,
		LocalX:      lx / swf.TwipsPerPixel,
		LocalY:      ly / swf.TwipsPerPixel,
		Key:         ev.Key,
	})
}
