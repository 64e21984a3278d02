package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArgs(t *testing.T) {
	for name, tc := range map[string]struct {
		in   []string
		want []string
	}{
		"bare c":        {in: []string{"-c"}, want: []string{"--continuous=10"}},
		"c with value":  {in: []string{"-c", "5", "-b"}, want: []string{"--continuous=5", "-b"}},
		"c before flag": {in: []string{"-c", "-b"}, want: []string{"--continuous=10", "-b"}},
		"long form":     {in: []string{"--continuous", "7"}, want: []string{"--continuous=7"}},
		"untouched":     {in: []string{"-b", "-r", "chrome"}, want: []string{"-b", "-r", "chrome"}},
		"zero ignored":  {in: []string{"-c", "0"}, want: []string{"--continuous=10", "0"}},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, normalizeArgs(tc.in))
		})
	}
}
