package gesture

import (
	"testing"

	"github.com/ayusman/tubecontrol/internal/detector"
	"github.com/ayusman/tubecontrol/internal/focus"
)

type gate bool

func (g gate) EyeControlDisabled() bool { return bool(g) }

func hand(h detector.Handedness, fingers int, label string, score float64) detector.HandLandmarks {
	ext := make([]bool, 5)
	for i := 0; i < fingers && i < 5; i++ {
		ext[i] = true
	}
	return detector.WithGesture(detector.HandFixture(h, ext[0], ext[1], ext[2], ext[3], ext[4]), label, score)
}

func TestResolve(t *testing.T) {
	bindings := BindingsOf(
		Binding{PlayVideo, PlayVideoControl},
		Binding{PauseVideo, PauseVideoControl},
		Binding{ThreeFingers, VolumeUpVideoControl},
		Binding{Focus, PlayVideoControl},
		Binding{NoFocus, PauseVideoControl},
	)
	r := NewResolver(bindings)

	tests := []struct {
		name   string
		frame  Frame
		gate   Gate
		want   Candidate
		wantOK bool
	}{
		{
			name:   "empty frame unknown focus",
			frame:  NewFrame(nil, focus.Unknown),
			wantOK: false,
		},
		{
			name: "bound gesture wins over finger sum",
			frame: NewFrame([]detector.HandLandmarks{
				hand(detector.Left, 3, "PauseVideo", 0.9),
			}, focus.Focused),
			want:   Candidate{PauseVideo, ModalityGesture},
			wantOK: true,
		},
		{
			name: "first bound hand in detection order",
			frame: NewFrame([]detector.HandLandmarks{
				hand(detector.Left, 0, "Mute", 0.9),
				hand(detector.Right, 5, "PlayVideo", 0.9),
				hand(detector.Right, 5, "PauseVideo", 0.9),
			}, focus.Unknown),
			want:   Candidate{PlayVideo, ModalityGesture},
			wantOK: true,
		},
		{
			name: "two hands no bound gesture sum five",
			frame: NewFrame([]detector.HandLandmarks{
				hand(detector.Left, 2, detector.NoGesture, 0.8),
				hand(detector.Right, 3, detector.NoGesture, 0.8),
			}, focus.Focused),
			want:   Candidate{FiveFingers, ModalityGesture},
			wantOK: true,
		},
		{
			name: "unrecognised label falls back to fingers",
			frame: NewFrame([]detector.HandLandmarks{
				hand(detector.Right, 3, "thumbs_sideways", 0.95),
			}, focus.Unknown),
			want:   Candidate{ThreeFingers, ModalityGesture},
			wantOK: true,
		},
		{
			name: "low confidence label ignored",
			frame: NewFrame([]detector.HandLandmarks{
				hand(detector.Right, 3, "PlayVideo", 0.3),
			}, focus.Unknown),
			want:   Candidate{ThreeFingers, ModalityGesture},
			wantOK: true,
		},
		{
			name: "hand present suppresses focus",
			frame: NewFrame([]detector.HandLandmarks{
				hand(detector.Right, 1, detector.NoGesture, 0),
			}, focus.NotFocused),
			wantOK: false,
		},
		{
			name: "sum above eight",
			frame: NewFrame([]detector.HandLandmarks{
				hand(detector.Left, 5, detector.NoGesture, 0),
				hand(detector.Right, 4, detector.NoGesture, 0),
			}, focus.Focused),
			wantOK: false,
		},
		{
			name:   "focused face",
			frame:  NewFrame(nil, focus.Focused),
			want:   Candidate{Focus, ModalityFace},
			wantOK: true,
		},
		{
			name:   "looking away",
			frame:  NewFrame(nil, focus.NotFocused),
			gate:   gate(false),
			want:   Candidate{NoFocus, ModalityFace},
			wantOK: true,
		},
		{
			name:   "eye control disabled",
			frame:  NewFrame(nil, focus.NotFocused),
			gate:   gate(true),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.frame, tt.gate)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v (got %+v)", ok, tt.wantOK, got)
			}
			if ok && got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFingerSumReturnsUnbound(t *testing.T) {
	r := NewResolver(BindingsOf())
	f := NewFrame([]detector.HandLandmarks{hand(detector.Left, 4, detector.NoGesture, 0)}, focus.Unknown)

	got, ok := r.Resolve(f, nil)
	if !ok || got.Action != FourFingers {
		t.Errorf("Resolve() = %+v, %v; want FourFingers", got, ok)
	}
}

func TestUnboundGestureLabelSkipped(t *testing.T) {
	r := NewResolver(BindingsOf(Binding{Mute, MuteVideoControl}))
	f := NewFrame([]detector.HandLandmarks{hand(detector.Left, 0, "PlayVideo", 0.99)}, focus.Focused)

	if got, ok := r.Resolve(f, nil); ok {
		t.Errorf("Resolve() = %+v, want no candidate", got)
	}
}

func TestResolverToggles(t *testing.T) {
	b := DefaultBindings()

	noGestures := NewResolver(b, WithGestureControl(false))
	f := NewFrame([]detector.HandLandmarks{hand(detector.Left, 0, "PlayVideo", 0.99)}, focus.Focused)
	if got, ok := noGestures.Resolve(f, nil); ok {
		t.Errorf("gesture control off: Resolve() = %+v", got)
	}

	noEyes := NewResolver(b, WithEyeFocusControl(false))
	if got, ok := noEyes.Resolve(NewFrame(nil, focus.Focused), nil); ok {
		t.Errorf("eye control off: Resolve() = %+v", got)
	}
}

func TestNewFrameCountsFingers(t *testing.T) {
	f := NewFrame([]detector.HandLandmarks{
		detector.OpenPalmLandmarks(detector.Left),
		detector.FistLandmarks(detector.Right),
	}, focus.Unknown)

	if len(f.Detections) != 2 {
		t.Fatalf("len(Detections) = %d", len(f.Detections))
	}
	if f.Detections[0].FingerCount != 5 || f.Detections[1].FingerCount != 0 {
		t.Errorf("counts = %d, %d", f.Detections[0].FingerCount, f.Detections[1].FingerCount)
	}
	if f.FingerTotal() != 5 {
		t.Errorf("FingerTotal() = %d", f.FingerTotal())
	}
}
