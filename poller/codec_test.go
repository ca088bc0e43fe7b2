package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNative(t *testing.T) {
	testCases := []struct {
		name string
		mask EventMask
		want NetEvents
	}{
		{"empty", 0, 0},
		{"in", CPOLLIN, NetRead},
		{"out", CPOLLOUT, NetWrite},
		{"hup", CPOLLHUP, NetClose},
		{"default registration", CPOLLIN | CPOLLOUT | CPOLLHUP | CPOLLERR, NetRead | NetWrite | NetClose},
		{"no native bit", CPOLLERR | CPOLLPRI | CPOLLRDHUP | CPOLLET | CPOLLONESHOT, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToNative(tc.mask))
		})
	}
}

func TestFromNative(t *testing.T) {
	testCases := []struct {
		name   string
		native NetEvents
		want   EventMask
	}{
		{"read", NetRead, CPOLLIN},
		{"accept", NetAccept, CPOLLIN},
		{"write", NetWrite, CPOLLOUT},
		{"close", NetClose, CPOLLHUP},
		{"error", NetError, CPOLLERR},
		{"close with error", NetClose | NetError, CPOLLHUP | CPOLLERR},
		{"unmapped", NetOOB | NetConnect, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FromNative(tc.native))
		})
	}
}

func TestUnsupported(t *testing.T) {
	assert.Equal(t, EventMask(0), Unsupported(CPOLLIN|CPOLLOUT|CPOLLHUP|CPOLLERR|CPOLLONESHOT))
	assert.Equal(t, CPOLLET|CPOLLPRI|CPOLLRDHUP, Unsupported(CPOLLIN|CPOLLET|CPOLLPRI|CPOLLRDHUP))
}
