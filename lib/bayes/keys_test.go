package bayes

import (
	"errors"
	"testing"
)

func TestKeys(t *testing.T) {
	testCases := []struct {
		namespace  string
		categories string
		red        string
	}{
		{"", "inferx:categories", "inferx:categories:red"},
		{"mail", "inferx:mail:categories", "inferx:mail:categories:red"},
	}

	for _, tc := range testCases {
		keys := NewKeys(tc.namespace)
		if got := keys.Categories(); got != tc.categories {
			t.Errorf("NewKeys(%q).Categories() = %q, want %q", tc.namespace, got, tc.categories)
		}
		if got := keys.Category("red"); got != tc.red {
			t.Errorf("NewKeys(%q).Category(red) = %q, want %q", tc.namespace, got, tc.red)
		}
	}
}

func TestCategoryError(t *testing.T) {
	testCases := []struct {
		err  *CategoryError
		msg  string
		kind error
	}{
		{&CategoryError{Name: "red", Err: ErrMissingCategory}, `"red" category is missing`, ErrMissingCategory},
		{&CategoryError{Name: "red", Err: ErrNotVisible}, `"red" does not exist in filtered categories`, ErrNotVisible},
	}

	for _, tc := range testCases {
		if tc.err.Error() != tc.msg {
			t.Errorf("Error() = %q, want %q", tc.err.Error(), tc.msg)
		}
		if !errors.Is(tc.err, tc.kind) {
			t.Errorf("errors.Is(%v, %v) = false", tc.err, tc.kind)
		}
	}
}

func TestTrainingMode(t *testing.T) {
	testCases := []struct {
		in      string
		mode    TrainingMode
		scoring ScoringMode
		wantErr bool
	}{
		{"", Standard, ArgMax, false},
		{"standard", Standard, ArgMax, false},
		{"complementary", Complementary, ArgMin, false},
		{"bogus", Standard, ArgMax, true},
	}

	for _, tc := range testCases {
		mode, err := ParseTrainingMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseTrainingMode(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if mode != tc.mode || mode.Scoring() != tc.scoring {
			t.Errorf("ParseTrainingMode(%q) = %v (%v), want %v (%v)", tc.in, mode, mode.Scoring(), tc.mode, tc.scoring)
		}
		if !tc.wantErr && tc.in != "" && mode.String() != tc.in {
			t.Errorf("String() = %q, want %q", mode.String(), tc.in)
		}
	}
}
