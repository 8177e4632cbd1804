// Package ecs provides ECS adapters for leap.
//
// [Registry] keeps animated subjects and their controllers as entities of a
// [Donburi] world, so game systems can query them alongside their own
// components. [NewEventSink] publishes timeline start/finish transitions as
// typed Donburi events; subscribe to [TransitionEventType] to receive them.
//
// Usage:
//
//	world := donburi.NewWorld()
//	reg := ecs.NewRegistry(world)
//	tl := leap.NewTimeline(reg, cfg)
//	tl.SetEventSink(ecs.NewEventSink(world))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
