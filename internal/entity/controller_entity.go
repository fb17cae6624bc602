package entity

import "cogentcore.org/core/math32"

type Hand int

const (
	HandLeft Hand = iota
	HandRight
)

func (h Hand) String() string {
	if h == HandLeft {
		return "left"
	}
	return "right"
}

// ControllerSample is one tick of hardware state for a single hand.
type ControllerSample struct {
	Hand         Hand
	Position     math32.Vector3
	Orientation  math32.Quat
	GripValue    float32
	TriggerValue float32
	Tracked      bool
}

type HeadPose struct {
	Position    math32.Vector3
	Orientation math32.Quat
}

// InputFrame groups everything the hardware reports for one tick.
type InputFrame struct {
	Left  ControllerSample
	Right ControllerSample
	Head  HeadPose
}

// IdentityQuat returns q, or the identity rotation when q is the zero value.
func IdentityQuat(q math32.Quat) math32.Quat {
	if q == (math32.Quat{}) {
		return math32.NewQuat(0, 0, 0, 1)
	}
	return q
}
