package gesture

import "github.com/ayusman/tubecontrol/internal/detector"

var fingerJoints = [...][2]int{
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// CountFingers returns how many fingers of one hand are extended (0..5).
//
// The thumb counts when its tip lies outward of the IP joint along X, which
// depends on handedness: tip.X > ip.X for a Left hand, tip.X < ip.X for a
// Right hand. An Unknown hand never counts its thumb. The other four fingers
// count when the tip is above the PIP joint (smaller Y).
//
// Hands with fewer than 21 landmarks count as 0.
func CountFingers(points []detector.Point3D, h detector.Handedness) int {
	if len(points) < detector.NumLandmarks {
		return 0
	}

	n := 0
	tip, ip := points[detector.ThumbTip], points[detector.ThumbIP]
	switch h {
	case detector.Left:
		if tip.X > ip.X {
			n++
		}
	case detector.Right:
		if tip.X < ip.X {
			n++
		}
	}

	for _, j := range fingerJoints {
		if points[j[0]].Y < points[j[1]].Y {
			n++
		}
	}
	return n
}
