package systems

import (
	"github.com/automoto/driftline/network"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi/ecs"
)

// NewNetInputSystem returns an ECS system that polls the controls and hands
// the resulting velocity to the session. Objects keep drifting when the keys
// are released; only Stop zeroes them. The session forwards an input only
// when it changes, so holding a key costs nothing.
func NewNetInputSystem(session *network.Session, state *InputState, speed float64) func(*ecs.ECS) {
	return func(_ *ecs.ECS) {
		PollInput(state)
		if v, ok := InputVector(state, speed); ok {
			session.SetInput(v)
		}
	}
}

// InputVector converts held directions into a velocity of the given speed.
// Stop wins over everything; diagonals are normalised. ok is false when
// nothing is held.
func InputVector(state *InputState, speed float64) (v mgl64.Vec2, ok bool) {
	if state.Pressed(ActionStop) {
		return mgl64.Vec2{}, true
	}

	var dir mgl64.Vec2
	if state.Pressed(ActionMoveLeft) {
		dir[0]--
	}
	if state.Pressed(ActionMoveRight) {
		dir[0]++
	}
	// screen y grows downwards
	if state.Pressed(ActionMoveUp) {
		dir[1]--
	}
	if state.Pressed(ActionMoveDown) {
		dir[1]++
	}
	if dir == (mgl64.Vec2{}) {
		dir = state.Stick
	}
	if dir == (mgl64.Vec2{}) {
		return mgl64.Vec2{}, false
	}

	if l := dir.Len(); l > 1 {
		dir = dir.Mul(1 / l)
	}
	return dir.Mul(speed), true
}
