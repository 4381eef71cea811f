package spinner

import (
	"math"
	"math/rand/v2"
)

const (
	minRotation   = 1800.0
	extraRotation = 1080.0
)

// Result is one spin of the wheel.
type Result struct {
	Rotation float64 `json:"rotation"`
	Angle    float64 `json:"angle"`
	Segment  int     `json:"segment"`
	Label    string  `json:"label"`
	Reward   Reward  `json:"reward"`
}

// Wheel draws spins. Zero value uses math/rand/v2.
type Wheel struct {
	Rand func() float64
}

// Spin rotates the wheel five to eight full turns and resolves the segment under the pointer.
func (w Wheel) Spin() Result {
	draw := w.Rand
	if draw == nil {
		draw = rand.Float64
	}
	rotation := minRotation + draw()*extraRotation
	angle := math.Mod(rotation, 360)
	index := SegmentForAngle(angle)
	seg := segments[index]
	return Result{Rotation: rotation, Angle: angle, Segment: index, Label: seg.Label, Reward: seg.Reward}
}
