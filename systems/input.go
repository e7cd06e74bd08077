package systems

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// Reusable slice for gamepad IDs to avoid allocations
var gamepadIDs []ebiten.GamepadID

// InputState is the pressed state of every action this frame and the last.
type InputState struct {
	Current  [ActionCount]bool
	Previous [ActionCount]bool

	// Stick is the left analog stick past the deadzone, in [-1, 1] per axis.
	Stick mgl64.Vec2
}

// Pressed reports whether id is held this frame.
func (s *InputState) Pressed(id ActionID) bool {
	return s.Current[id]
}

// JustPressed reports whether id went down this frame.
func (s *InputState) JustPressed(id ActionID) bool {
	return s.Current[id] && !s.Previous[id]
}

// PollInput reads the keyboard and every standard-layout gamepad into state.
func PollInput(state *InputState) {
	// Swap buffers: current becomes previous, then zero out current
	state.Previous = state.Current
	state.Current = [ActionCount]bool{}
	state.Stick = mgl64.Vec2{}

	gamepadIDs = ebiten.AppendGamepadIDs(gamepadIDs[:0])

	for actionID, binding := range Controls.Bindings {
		for _, key := range binding.Keys {
			if ebiten.IsKeyPressed(key) {
				state.Current[actionID] = true
			}
		}
		for _, gpID := range gamepadIDs {
			if !ebiten.IsStandardGamepadLayoutAvailable(gpID) {
				continue
			}
			for _, btn := range binding.StandardGamepadButtons {
				if ebiten.IsStandardGamepadButtonPressed(gpID, btn) {
					state.Current[actionID] = true
				}
			}
		}
	}

	state.Stick = analogStick(gamepadIDs)
}

// analogStick reads the left stick of the first gamepad pushed past the deadzone.
func analogStick(gamepads []ebiten.GamepadID) mgl64.Vec2 {
	deadzone := Controls.AnalogDeadzone
	for _, gpID := range gamepads {
		if !ebiten.IsStandardGamepadLayoutAvailable(gpID) {
			continue
		}
		h := ebiten.StandardGamepadAxisValue(gpID, ebiten.StandardGamepadAxisLeftStickHorizontal)
		v := ebiten.StandardGamepadAxisValue(gpID, ebiten.StandardGamepadAxisLeftStickVertical)
		stick := mgl64.Vec2{h, v}
		if stick.Len() > deadzone {
			return stick
		}
	}
	return mgl64.Vec2{}
}
