package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_TrimsAndSeparates(t *testing.T) {
	assert.Equal(t, Text("a", "b"), Text(" a ", "b\n"))
	assert.NotEqual(t, Text("ab", ""), Text("a", "b"))
}

func TestBytes_KnownVector(t *testing.T) {
	// sha256("") 的标准值
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Bytes(nil))
	assert.Equal(t, Bytes([]byte("x")), Bytes([]byte("x")))
}
