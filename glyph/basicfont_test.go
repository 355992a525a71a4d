package glyph

import "testing"

func TestBasicFontSourceSize(t *testing.T) {
	s := NewBasicFontSource()
	w, h := s.Size()
	if w != 7 || h != 13 {
		t.Fatalf("Size() = (%d,%d), want (7,13)", w, h)
	}
}

func TestBasicFontSourceRendersKnownGlyph(t *testing.T) {
	s := NewBasicFontSource()
	rows, ok := s.Glyph('A')
	if !ok {
		t.Fatalf("expected a glyph for 'A'")
	}
	set := false
	for _, b := range rows {
		if b != 0 {
			set = true
			break
		}
	}
	if !set {
		t.Fatalf("expected at least one foreground bit for 'A', got all zero rows")
	}
}

func TestBasicFontSourceSpaceHasNoCoverage(t *testing.T) {
	s := NewBasicFontSource()
	rows, ok := s.Glyph(' ')
	if !ok {
		t.Fatalf("expected a glyph for space")
	}
	for _, b := range rows {
		if b != 0 {
			t.Fatalf("expected space to have zero coverage, got %v", rows)
		}
	}
}

func TestRendererWorksWithBasicFontSource(t *testing.T) {
	r := New(NewBasicFontSource())
	r.Init(1)
	cw, ch := r.GetSize()
	if cw != 7 || ch != 13 {
		t.Fatalf("GetSize() = (%d,%d), want (7,13)", cw, ch)
	}
	buf := make([]uint32, cw*ch)
	r.Render(buf, 0, 0, cw*4, 'X', 0xffffff, 0x000000)
}
