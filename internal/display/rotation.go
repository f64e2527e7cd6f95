package display

import (
	"errors"
	"fmt"
)

// ErrUnsupportedRotation is returned for rotation values outside 0°..270°.
var ErrUnsupportedRotation = errors.New("unsupported rotation")

// RotationValue is a quarter-turn count. RotationUnset is only valid as an
// input to NewRotation.
type RotationValue int

const (
	RotationUnset RotationValue = -1
	Rotation0     RotationValue = 0
	Rotation90    RotationValue = 1
	Rotation180   RotationValue = 2
	Rotation270   RotationValue = 3
)

// Orientation is the screen orientation implied by an effective rotation.
type Orientation string

const (
	OrientationLandscape        Orientation = "landscape"
	OrientationPortrait         Orientation = "portrait"
	OrientationLandscapeFlipped Orientation = "landscape-flipped"
	OrientationPortraitFlipped  Orientation = "portrait-flipped"
)

// ParseRotation validates n as a quarter-turn count in 0..3.
func ParseRotation(n int) (RotationValue, error) {
	v := RotationValue(n)
	if !v.valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedRotation, n)
	}
	return v, nil
}

// RotationFromDegrees maps 0, 90, 180 or 270 to a RotationValue.
func RotationFromDegrees(deg int) (RotationValue, error) {
	if deg%90 != 0 {
		return 0, fmt.Errorf("%w: %d°", ErrUnsupportedRotation, deg)
	}
	return ParseRotation(deg / 90)
}

func (v RotationValue) valid() bool {
	return v >= Rotation0 && v <= Rotation270
}

// Degrees returns the rotation in degrees.
func (v RotationValue) Degrees() (int, error) {
	if !v.valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedRotation, int(v))
	}
	return int(v) * 90, nil
}

func (v RotationValue) String() string {
	deg, err := v.Degrees()
	if err != nil {
		return "undefined"
	}
	return fmt.Sprintf("%d°", deg)
}

// Rotation composes a requested rotation with the panel's native base.
// The zero value is 0° for all three fields.
type Rotation struct {
	Unnormalized RotationValue
	NativeBase   RotationValue
	Effective    RotationValue
}

// NewRotation builds a rotation from the requested value and the panel's
// native base. A RotationUnset native base is derived as the inverse of
// the requested rotation.
func NewRotation(unnormalized, native RotationValue) Rotation {
	base := native
	if native == RotationUnset {
		base = RotationValue((4 - int(unnormalized)) % 4)
	}
	return Rotation{
		Unnormalized: unnormalized,
		NativeBase:   base,
		Effective:    RotationValue((int(unnormalized) + int(base)) % 4),
	}
}

// Degrees returns the effective rotation in degrees.
func (r Rotation) Degrees() (int, error) {
	return r.Effective.Degrees()
}

// Orientation maps the effective rotation to a screen orientation.
func (r Rotation) Orientation() (Orientation, error) {
	switch r.Effective {
	case Rotation0:
		return OrientationLandscape, nil
	case Rotation90:
		return OrientationPortrait, nil
	case Rotation180:
		return OrientationLandscapeFlipped, nil
	case Rotation270:
		return OrientationPortraitFlipped, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnsupportedRotation, int(r.Effective))
	}
}

func (r Rotation) String() string {
	return r.Effective.String()
}
