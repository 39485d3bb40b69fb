package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"blanks only", []string{"", "  "}, []string{}},
		{"keeps first occurrence", []string{" blob/a ", "blob/b", "blob/a"}, []string{"blob/a", "blob/b"}},
		{"case sensitive", []string{"Ref", "ref"}, []string{"Ref", "ref"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.in))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, SplitList(" kafka-1:9092,,kafka-2:9092, kafka-1:9092"))
	assert.Empty(t, SplitList(""))
}
