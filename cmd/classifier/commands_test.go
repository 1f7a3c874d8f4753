package classifier

import (
	"strings"
	"testing"
)

func TestReadWords(t *testing.T) {
	testCases := []struct {
		name  string
		args  []string
		stdin string
		want  []string
	}{
		{"Args", []string{"apple", "pear"}, "ignored", []string{"apple", "pear"}},
		{"Stdin", []string{"-"}, "apple  pear\n\tplum\n", []string{"apple", "pear", "plum"}},
		{"EmptyStdin", []string{"-"}, "", nil},
		{"DashWithOthers", []string{"-", "apple"}, "pear", []string{"-", "apple"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readWords(tc.args, strings.NewReader(tc.stdin))
			if err != nil {
				t.Fatalf("readWords failed: %v", err)
			}
			if strings.Join(got, ",") != strings.Join(tc.want, ",") || len(got) != len(tc.want) {
				t.Errorf("readWords() = %v, want %v", got, tc.want)
			}
		})
	}
}
