package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestData(t *testing.T) {
	assert.Equal(t, 17, FdData(17).Fd())
	assert.Equal(t, -1, FdData(-1).Fd())
	assert.Equal(t, uint32(5), U32Data(5).U32())
	assert.Equal(t, uint64(1<<40), Data(1<<40).U64())
}

func TestEventMask_String(t *testing.T) {
	assert.Equal(t, "0", EventMask(0).String())
	assert.Equal(t, "IN|OUT", (CPOLLIN | CPOLLOUT).String())
	assert.Equal(t, "IN|ERR|HUP|ONESHOT", (CPOLLIN | CPOLLHUP | CPOLLERR | CPOLLONESHOT).String())
}

func TestParseEventMask(t *testing.T) {
	m, ok := ParseEventMask("in|CPOLLOUT| oneshot")
	assert.True(t, ok)
	assert.Equal(t, CPOLLIN|CPOLLOUT|CPOLLONESHOT, m)

	m, ok = ParseEventMask("0")
	assert.True(t, ok)
	assert.Equal(t, EventMask(0), m)

	_, ok = ParseEventMask("IN|BOGUS")
	assert.False(t, ok)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "ADD", CPOLL_CTL_ADD.String())
	assert.Equal(t, "MOD", CPOLL_CTL_MOD.String())
	assert.Equal(t, "DEL", CPOLL_CTL_DEL.String())
	assert.Equal(t, "Op(42)", Op(42).String())
}
