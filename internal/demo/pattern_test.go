package demo

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"flipdot/internal/flipdot"
)

const (
	testH = 13
	testW = 28
)

func TestLibraryNames(t *testing.T) {
	l := NewLibrary(Options{Text: "HI"})
	want := []string{"border", "checkerboard", "clear", "fill", "icon", "noise", "rings", "text", "wipe"}
	got := l.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, err := l.Get("fireworks"); err == nil {
		t.Error("Get accepted an unknown pattern")
	}
}

func TestEveryPatternFitsDisplay(t *testing.T) {
	l := NewLibrary(Options{Text: "HI", Seed: 1})
	for _, name := range l.Names() {
		p, _ := l.Get(name)
		frames, err := p.Frames(testH, testW)
		if err != nil {
			t.Errorf("%s: Frames() error = %v", name, err)
			continue
		}
		if len(frames) == 0 {
			t.Errorf("%s: no frames", name)
		}
		for i, f := range frames {
			if f.Height() != testH || f.Width() != testW {
				t.Errorf("%s frame %d is %dx%d", name, i, f.Height(), f.Width())
			}
		}
	}
}

func TestCheckerboardPhases(t *testing.T) {
	frames := Checkerboard(testH, testW)
	if len(frames) != 2 {
		t.Fatalf("%d frames, want 2", len(frames))
	}
	for r := 0; r < testH; r++ {
		for c := 0; c < testW; c++ {
			if frames[0].At(r, c) == frames[1].At(r, c) {
				t.Fatalf("phases agree at (%d,%d)", r, c)
			}
		}
	}
}

func TestBorder(t *testing.T) {
	g := Border(testH, testW)[0]
	if want := 2*testW + 2*(testH-2); g.Count() != want {
		t.Errorf("Count() = %d, want %d", g.Count(), want)
	}
	if g.At(1, 1) {
		t.Error("border leaks into the interior")
	}
}

func TestRingsGrowToEdge(t *testing.T) {
	frames := Rings(testH, testW)
	if len(frames) != 7 {
		t.Fatalf("%d frames, want 7", len(frames))
	}
	if !frames[len(frames)-1].Equal(Border(testH, testW)[0]) {
		t.Error("last ring is not the border")
	}
	if frames[0].At(0, 0) {
		t.Error("first ring touches the corner")
	}
}

func TestWipeEndsBlank(t *testing.T) {
	frames := Wipe(testH, testW)
	if len(frames) != 2*testW {
		t.Fatalf("%d frames, want %d", len(frames), 2*testW)
	}
	if frames[testW-1].Count() != testH*testW {
		t.Error("display not full at the turning point")
	}
	if frames[len(frames)-1].Count() != 0 {
		t.Error("last frame not blank")
	}
	// Consecutive frames differ by exactly one column.
	for i := 1; i < len(frames); i++ {
		if n := len(flipdot.Diff(frames[i-1], frames[i])); n != testH {
			t.Fatalf("frames %d and %d differ in %d dots", i-1, i, n)
		}
	}
}

func TestNoiseIsSeeded(t *testing.T) {
	a := Noise(testH, testW, 3, rand.New(rand.NewSource(9)))
	b := Noise(testH, testW, 3, rand.New(rand.NewSource(9)))
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Errorf("frame %d differs for the same seed", i)
		}
	}
}

func TestScrollText(t *testing.T) {
	frames := ScrollText("HI", testH, testW)
	// "HI" is 14 columns wide in the 7x13 face.
	if want := 14 + testW + 1; len(frames) != want {
		t.Fatalf("%d frames, want %d", len(frames), want)
	}
	if frames[0].Count() != 0 || frames[len(frames)-1].Count() != 0 {
		t.Error("scroll should start and end blank")
	}
	lit := 0
	for _, f := range frames {
		if f.Count() > lit {
			lit = f.Count()
		}
	}
	if lit == 0 {
		t.Error("text never appeared")
	}
}

func TestIcon(t *testing.T) {
	g, err := Icon(defaultIcon, testH, testW)
	if err != nil {
		t.Fatalf("Icon() error = %v", err)
	}
	if g.Count() == 0 {
		t.Fatal("icon rendered no dots")
	}
	// The square target is centered, so the outer columns stay dark.
	for r := 0; r < testH; r++ {
		if g.At(r, 0) || g.At(r, testW-1) {
			t.Fatalf("icon spills to the panel edge at row %d:\n%s", r, g)
		}
	}
	if !g.At(testH/2, testW/2) && !g.At(testH/2, testW/2-1) {
		t.Errorf("heart center is dark:\n%s", g)
	}

	if _, err := Icon([]byte("<svg><path"), testH, testW); err == nil {
		t.Error("Icon accepted garbage")
	}
}

func TestIconFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icon.svg")
	if err := os.WriteFile(path, defaultIcon, 0o600); err != nil {
		t.Fatal(err)
	}
	p, _ := NewLibrary(Options{IconPath: path}).Get("icon")
	if _, err := p.Frames(testH, testW); err != nil {
		t.Errorf("Frames() error = %v", err)
	}

	missing, _ := NewLibrary(Options{IconPath: filepath.Join(t.TempDir(), "nope.svg")}).Get("icon")
	if _, err := missing.Frames(testH, testW); err == nil {
		t.Error("missing icon file was not reported")
	}
}
