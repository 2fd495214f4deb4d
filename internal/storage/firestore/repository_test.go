package firestore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	t.Parallel()

	ids := make([]string, 65)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%d", i)
	}

	chunks := chunk(ids, inFilterLimit)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 30)
	assert.Len(t, chunks[2], 5)
	assert.Equal(t, "u64", chunks[2][4])

	assert.Nil(t, chunk(nil, inFilterLimit))
	assert.Len(t, chunk(ids[:30], inFilterLimit), 1)
}

func TestRecordID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ana_week-1", recordID("ana", "week-1"))

	tests := []struct {
		name string
		a, b [2]string
	}{
		{"separator in owner or prompt", [2]string{"a_b", "c"}, [2]string{"a", "b_c"}},
		{"escaped separator", [2]string{"a%5Fb", "c"}, [2]string{"a_b", "c"}},
		{"slash", [2]string{"a/b", "c"}, [2]string{"a%2Fb", "c"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			first := recordID(tt.a[0], tt.a[1])
			assert.NotEqual(t, first, recordID(tt.b[0], tt.b[1]))
			assert.NotContains(t, first, "/")
		})
	}
}
