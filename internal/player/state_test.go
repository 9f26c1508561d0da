package player

import (
	"testing"
)

func TestSeekFractionAlignment(t *testing.T) {
	st := loadedState(44100, 2)

	fractions := []float64{0, 0.1, 0.25, 0.333333, 0.5, 0.7071, 0.99999, 1}
	for _, p := range fractions {
		st.SeekFraction(p)
		cursor := st.Cursor()

		if cursor%2 != 0 {
			t.Errorf("SeekFraction(%v): cursor %d not channel-aligned", p, cursor)
		}
		if cursor < 0 || cursor > st.TotalSamples() {
			t.Errorf("SeekFraction(%v): cursor %d out of [0, %d]", p, cursor, st.TotalSamples())
		}
	}

	// Out-of-range fractions clamp instead of escaping the buffer.
	st.SeekFraction(-0.5)
	if got := st.Cursor(); got != 0 {
		t.Errorf("SeekFraction(-0.5): cursor %d, want 0", got)
	}
	st.SeekFraction(2)
	if got := st.Cursor(); got != st.TotalSamples() {
		t.Errorf("SeekFraction(2): cursor %d, want %d", got, st.TotalSamples())
	}
}

func TestSetCursorClampAndAlign(t *testing.T) {
	st := loadedState(1000, 2)

	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{7, 6},
		{2000, 2000},
		{99999, 2000},
	}
	for _, tt := range tests {
		st.SetCursor(tt.in)
		if got := st.Cursor(); got != tt.want {
			t.Errorf("SetCursor(%d): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestResetParamsIdempotent(t *testing.T) {
	st := loadedState(44100, 2)
	st.SetSpeed(2.5)
	st.SetPitch(0.7)

	st.ResetParams()
	first := st.Status()

	st.ResetParams()
	second := st.Status()

	if first.Speed != 1 || first.Pitch != 1 {
		t.Fatalf("ResetParams: speed=%v pitch=%v, want 1/1", first.Speed, first.Pitch)
	}
	if first.Speed != second.Speed || first.Pitch != second.Pitch ||
		first.Volume != second.Volume || first.Cursor != second.Cursor {
		t.Errorf("ResetParams not idempotent: %+v vs %+v", first, second)
	}
}

func TestParamValidation(t *testing.T) {
	st := NewState()

	st.SetSpeed(0)
	st.SetSpeed(-1)
	if got := st.Speed(); got != 1 {
		t.Errorf("speed after invalid sets: got %v, want 1", got)
	}

	st.SetPitch(0)
	if got := st.Pitch(); got != 1 {
		t.Errorf("pitch after invalid set: got %v, want 1", got)
	}

	st.SetVolume(-0.5)
	if got := st.Volume(); got != 1 {
		t.Errorf("volume after invalid set: got %v, want 1", got)
	}
	st.SetVolume(0)
	if got := st.Volume(); got != 0 {
		t.Errorf("volume zero is valid: got %v, want 0", got)
	}
}

func TestLoopBoundsWriterInvariant(t *testing.T) {
	st := loadedState(1000, 2) // total 2000

	st.SetLoopStart(400)
	st.SetLoopEnd(1200)
	if start, end := st.LoopBounds(); start != 400 || end != 1200 {
		t.Fatalf("loop bounds: got (%d, %d), want (400, 1200)", start, end)
	}

	// End may not precede start; it clamps to start.
	st.SetLoopEnd(100)
	if start, end := st.LoopBounds(); end < start {
		t.Errorf("loop bounds inverted: (%d, %d)", start, end)
	}

	// Start may not pass end either.
	st.SetLoopEnd(1200)
	st.SetLoopStart(1800)
	if start, end := st.LoopBounds(); start > end {
		t.Errorf("loop bounds inverted: (%d, %d)", start, end)
	}

	st.ClearLoop()
	if start, end := st.LoopBounds(); start != 0 || end != 2000 {
		t.Errorf("ClearLoop: got (%d, %d), want (0, 2000)", start, end)
	}
}

func TestShiftLoopPreservesWidth(t *testing.T) {
	st := loadedState(1000, 2) // total 2000
	st.SetLoopStart(400)
	st.SetLoopEnd(800)

	st.ShiftLoop(200)
	if start, end := st.LoopBounds(); start != 600 || end != 1000 {
		t.Fatalf("shift right: got (%d, %d), want (600, 1000)", start, end)
	}

	st.ShiftLoop(-100)
	if start, end := st.LoopBounds(); start != 500 || end != 900 {
		t.Fatalf("shift left: got (%d, %d), want (500, 900)", start, end)
	}

	// Shifting past an edge clamps, keeping the width.
	st.ShiftLoop(-99999)
	if start, end := st.LoopBounds(); start != 0 || end != 400 {
		t.Fatalf("clamped left: got (%d, %d), want (0, 400)", start, end)
	}
	st.ShiftLoop(99999)
	if start, end := st.LoopBounds(); start != 1600 || end != 2000 {
		t.Fatalf("clamped right: got (%d, %d), want (1600, 2000)", start, end)
	}
}

func TestPublishResetsTransport(t *testing.T) {
	st := loadedState(1000, 2)
	st.SetCursor(500)
	st.SetLoopStart(100)
	st.SetLoopEnd(900)

	st.publish(testClip(2000, 2, 44100))

	if got := st.Cursor(); got != 0 {
		t.Errorf("cursor after publish: got %d, want 0", got)
	}
	if start, end := st.LoopBounds(); start != 0 || end != 4000 {
		t.Errorf("loop after publish: got (%d, %d), want (0, 4000)", start, end)
	}
	if got := st.TotalSamples(); got != 4000 {
		t.Errorf("total after publish: got %d, want 4000", got)
	}
}

func TestTogglePlaying(t *testing.T) {
	st := NewState()
	if !st.IsPlaying() {
		t.Fatal("default state should be playing")
	}
	if got := st.TogglePlaying(); got || st.IsPlaying() {
		t.Errorf("first toggle: got %v, want paused", got)
	}
	if got := st.TogglePlaying(); !got || !st.IsPlaying() {
		t.Errorf("second toggle: got %v, want playing", got)
	}
}

func TestStatusSnapshot(t *testing.T) {
	st := loadedState(44100, 2)
	st.SetCursor(44100) // half of a 1s stereo buffer

	status := st.Status()

	if status.TotalSamples != 88200 || status.SampleRate != 44100 || status.Channels != 2 {
		t.Fatalf("snapshot format: %+v", status)
	}
	if status.FilePath != "test.wav" {
		t.Errorf("file path: got %q, want %q", status.FilePath, "test.wav")
	}
	if len(status.Waveform) != 1000 {
		t.Errorf("waveform length: got %d, want 1000", len(status.Waveform))
	}

	// 44100 interleaved samples at 44.1kHz stereo is half a second.
	if got := status.Elapsed.Seconds(); got < 0.499 || got > 0.501 {
		t.Errorf("elapsed: got %vs, want 0.5s", got)
	}
	if got := status.Total.Seconds(); got < 0.999 || got > 1.001 {
		t.Errorf("total: got %vs, want 1s", got)
	}
}

func TestLoopMarksAtCursor(t *testing.T) {
	st := loadedState(1000, 2)
	st.SetCursor(600)
	st.SetLoopStartAtCursor()
	st.SetCursor(1400)
	st.SetLoopEndAtCursor()

	if start, end := st.LoopBounds(); start != 600 || end != 1400 {
		t.Errorf("loop at cursors: got (%d, %d), want (600, 1400)", start, end)
	}
}
