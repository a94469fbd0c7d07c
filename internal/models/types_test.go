package models

import "testing"

func TestCategoryIsTV(t *testing.T) {
	for _, c := range []Category{CategoryTV, CategoryTVBoxsets, CategoryTVEpisodes} {
		if !c.IsTV() {
			t.Errorf("%s must count as TV", c)
		}
	}
	for _, c := range []Category{CategoryMovies, CategoryOther, CategoryUnknown} {
		if c.IsTV() {
			t.Errorf("%s must not count as TV", c)
		}
	}
}

func TestDialogStateAcceptsText(t *testing.T) {
	accepting := []DialogState{StateAwaitingQuery, StateAwaitingFutureQuery}
	for _, s := range accepting {
		if !s.AcceptsText() {
			t.Errorf("%s must accept text", s)
		}
	}

	rejecting := []DialogState{StateIdle, StateShowingResults, StateConfirmingDownload}
	for _, s := range rejecting {
		if s.AcceptsText() {
			t.Errorf("%s must not accept text", s)
		}
	}
}
