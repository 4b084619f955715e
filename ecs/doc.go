// Package ecs bridges marquee button interactions into a [Donburi] world.
//
// [NewDonburiStore] publishes every [marquee.InteractionEvent] as a typed
// Donburi event and mirrors each button's hover and press state onto an
// entity carrying [ButtonComponent].
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	player.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
