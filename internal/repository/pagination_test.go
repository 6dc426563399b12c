package repository

import "testing"

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		in   PageRequest
		want PageRequest
	}{
		{PageRequest{}, PageRequest{Page: 1, Limit: 20}},
		{PageRequest{Page: -3, Limit: -1}, PageRequest{Page: 1, Limit: 20}},
		{PageRequest{Page: 4, Limit: 500}, PageRequest{Page: 4, Limit: 100}},
		{PageRequest{Page: 2, Limit: 1}, PageRequest{Page: 2, Limit: 1}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestResolvePage(t *testing.T) {
	tests := []struct {
		name       string
		req        PageRequest
		total      int
		wantPage   int
		wantOffset int
	}{
		{"empty collection", PageRequest{Page: 7, Limit: 10}, 0, 1, 0},
		{"first page", PageRequest{Page: 1, Limit: 10}, 35, 1, 0},
		{"middle page", PageRequest{Page: 3, Limit: 10}, 35, 3, 20},
		{"exact last page", PageRequest{Page: 4, Limit: 10}, 35, 4, 30},
		{"overflow clamps to last", PageRequest{Page: 99999, Limit: 20}, 5, 1, 0},
		{"overflow on boundary", PageRequest{Page: 5, Limit: 10}, 40, 4, 30},
		{"search scenario", PageRequest{Page: 2, Limit: 10}, 3, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, offset := ResolvePage(tt.req, tt.total)
			if page != tt.wantPage || offset != tt.wantOffset {
				t.Fatalf("ResolvePage = (%d, %d), want (%d, %d)", page, offset, tt.wantPage, tt.wantOffset)
			}
		})
	}
}

func TestNewPageHasMore(t *testing.T) {
	p := NewPage([]int{1, 2, 3, 4, 5}, 12, PageRequest{Page: 2, Limit: 5}, 2)
	if !p.HasMore {
		t.Error("page 2 of 12 rows by 5 should have more")
	}
	last := NewPage([]int{1, 2}, 12, PageRequest{Page: 3, Limit: 5}, 3)
	if last.HasMore {
		t.Error("last page should not have more")
	}
	empty := NewPage[int](nil, 0, PageRequest{}, 1)
	if empty.Items == nil || len(empty.Items) != 0 || empty.Page != 1 || empty.HasMore {
		t.Errorf("unexpected empty page: %+v", empty)
	}
}
