package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, per          int
		wantPage, wantPer int
	}{
		{0, 0, 1, 10},
		{-3, 5, 1, 5},
		{2, 500, 2, 100},
		{4, 25, 4, 25},
	}
	for _, tc := range cases {
		p, n := ClampPage(tc.page, tc.per, 10, 100)
		if p != tc.wantPage || n != tc.wantPer {
			t.Fatalf("ClampPage(%d,%d) = (%d,%d); want (%d,%d)", tc.page, tc.per, p, n, tc.wantPage, tc.wantPer)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 10); got != 0 {
		t.Fatalf("Offset(1,10)=%d", got)
	}
	if got := Offset(3, 10); got != 20 {
		t.Fatalf("Offset(3,10)=%d", got)
	}
	if got := Offset(0, 10); got != 0 {
		t.Fatalf("Offset(0,10)=%d", got)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 21)
	if p.TotalPages != 3 || p.TotalCount != 21 || p.CurrentPage != 2 || p.PerPage != 10 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if got := NewPagination(1, 10, 0).TotalPages; got != 0 {
		t.Fatalf("empty listing pages=%d; want 0", got)
	}
	if got := NewPagination(1, 10, 10).TotalPages; got != 1 {
		t.Fatalf("exact fit pages=%d; want 1", got)
	}
}
