// Package marquee is a frame-stepped playback engine for SWF movies.
//
// A [Player] owns a decoded movie, its device backends and a scene graph of
// [Node] values kept in a tracing-collected [Arena]. The host calls
// [Player.Tick] with elapsed milliseconds; the player turns accumulated time
// into discrete frame steps, each of which runs the root timeline, commits
// frame numbers, drains the [ActionQueue] into the [ScriptInterpreter] and
// updates drag and hover state. Rendering goes through a [RenderBackend].
//
// # Quick start
//
//	data, _ := os.ReadFile("movie.swf")
//	p, err := marquee.NewPlayer(data, marquee.Options{
//		Renderer: renderer,
//		Logger:   logger,
//	})
//	if err != nil {
//		return err
//	}
//	p.SetPlaying(true)
//	for {
//		p.ProcessInput()
//		p.Tick(16.7)
//		time.Sleep(p.TimeUntilNextFrame())
//	}
//
// The ebitenhost package provides Ebitengine backends and a game loop.
//
// # Timelines
//
// Every movie clip keeps a byte cursor into the shared tag buffer. A frame
// step reads tags up to the next ShowFrame, applying definitions to the
// [Library] and placements to the clip's depth-keyed children, then
// advances the frame number, looping back to frame 1 after the last frame.
// Nested sprite timelines are indexed when defined and read lazily.
//
// # Mutation and collection
//
// All engine state hangs off a single [GCRoot]. It is only reachable inside
// [Arena.Mutate], which hands timeline code and script interpreters an
// [UpdateContext]. Nested mutation panics with [ErrReentrantMutation].
// Parent and child handles may form cycles; reachability from the root
// decides what survives. Collection is incremental and paid for with
// allocation debt after each frame step.
//
// # Buttons and input
//
// Mouse events are mapped through the inverse view matrix into stage twips
// and picked against button hit areas, topmost first. Buttons move through
// Up, Over and Down states and queue their condition actions. Keyboard
// events become button key presses and clip events, and mouse and key
// listeners are notified through [ActionNotifyListeners] actions.
package marquee
