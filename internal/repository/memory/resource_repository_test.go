package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResourceRepositoryRoundTrip(t *testing.T) {
	r := NewResourceRepository(time.Minute, 0)
	r.Save("http://x/a.png", []byte("abc"))

	data, ok := r.Get("http://x/a.png")
	assert.True(t, ok)
	assert.Equal(t, []byte("abc"), data)
	assert.Equal(t, int64(3), r.UsedBytes())

	r.Save("http://x/a.png", []byte("abcdef"))
	assert.Equal(t, int64(6), r.UsedBytes())

	r.Delete("http://x/a.png")
	_, ok = r.Get("http://x/a.png")
	assert.False(t, ok)
	assert.Equal(t, int64(0), r.UsedBytes())
}

func TestResourceRepositoryByteBudget(t *testing.T) {
	r := NewResourceRepository(time.Minute, 10)
	r.Save("a", make([]byte, 8))
	r.Save("b", make([]byte, 8))

	_, ok := r.Get("b")
	assert.False(t, ok, "over budget entries are skipped")
	assert.Equal(t, 1, r.Len())
}
