// Package geometry translates pointer gestures into window geometry.
//
// The package has two halves:
//   - Pure math: ApplyDrag, ApplyResize, Clamp and Cascade. No state, no
//     viewport clamping.
//   - Controller: a per-surface state machine that captures one pointer
//     from pointer-down to pointer-up/cancel, coalesces move events to one
//     visual update per frame via a FrameScheduler, and commits the final
//     geometry to a Target exactly once.
//
// Resize rules per axis:
//   - e/s edges grow or shrink the dimension, clamped at the minimum
//   - w/n edges shrink the dimension and slide the origin; once the minimum
//     is reached the origin is pinned at origin + (size - minimum)
//   - corners combine both axes independently
//
// Example Usage:
//
//	ctrl := geometry.NewController(windowManager, painter, geometry.NewTimerScheduler(0))
//	ctrl.BeginDrag(windowID, geometry.PointerEvent{PointerID: 1, X: 120, Y: 60, Region: geometry.RegionTitle})
//	ctrl.HandleMove(geometry.PointerEvent{PointerID: 1, X: 170, Y: 90})
//	ctrl.HandleUp(geometry.PointerEvent{PointerID: 1})
package geometry
