package errs

import (
	"errors"
	"syscall"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPollErr_Error(t *testing.T) {
	assert.Equal(t, "[100004] descriptor not registered", NewNotFoundErr().Error())
	assert.Equal(t, "[100006] native wait primitive failed => boom", NewNativeFailureErr().WithErr(errors.New("boom")).Error())
}

func TestPollErr_Is(t *testing.T) {
	cause := errors.New("cause")
	err := pkgerrors.WithMessage(NewInvalidDescriptorErr().WithErr(cause), "wait")

	assert.True(t, errors.Is(err, NewInvalidDescriptorErr()))
	assert.False(t, errors.Is(err, NewNotFoundErr()))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, int64(InvalidDescriptorErrCode), GetCode(err))
	assert.Equal(t, int64(UnknownErrCode), GetCode(cause))
}

func TestPollErr_Errno(t *testing.T) {
	testCases := []struct {
		err   *PollErr
		errno syscall.Errno
	}{
		{NewInvalidParamErr(), syscall.EINVAL},
		{NewInvalidDescriptorErr(), syscall.EBADF},
		{NewAlreadyExistsErr(), syscall.EEXIST},
		{NewNotFoundErr(), syscall.ENOENT},
		{NewResourceExhaustedErr(), syscall.ENFILE},
		{NewNativeFailureErr(), syscall.EIO},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.errno, tc.err.Errno(), tc.err.Error())
	}
}
