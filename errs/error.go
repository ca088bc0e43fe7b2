package errs

import (
	"errors"
	"fmt"
	"syscall"
)

type PollErr struct {
	msg   string
	code  int64
	errno syscall.Errno
	err   error
}

// Error 输出格式：
// [错误码] 错误类型描述 ( => 包含错误详细描述 )
func (pe *PollErr) Error() string {
	details := fmt.Sprintf("[%d] %s", pe.code, pe.msg)
	if pe.err != nil {
		details += fmt.Sprintf(" => %s", pe.err)
	}

	return details
}

func (pe *PollErr) Code() int64 {
	return pe.code
}

// Errno is the errno epoll would have reported for the same condition.
func (pe *PollErr) Errno() syscall.Errno {
	return pe.errno
}

func (pe *PollErr) WithErr(err error) *PollErr {
	pe.err = err
	return pe
}

func (pe *PollErr) Unwrap() error {
	return pe.err
}

// Is matches on the code only, so errors.Is(err, errs.NewNotFoundErr()) works.
func (pe *PollErr) Is(target error) bool {
	var other *PollErr
	if !errors.As(target, &other) {
		return false
	}
	return other.code == pe.code
}

func GetCode(err error) int64 {
	var pe *PollErr
	if errors.As(err, &pe) {
		return pe.code
	}
	return UnknownErrCode
}

const (
	UnknownErrCode            = 0
	InvalidParamErrCode       = 100001
	InvalidDescriptorErrCode  = 100002
	AlreadyExistsErrCode      = 100003
	NotFoundErrCode           = 100004
	ResourceExhaustedErrCode  = 100005
	NativeFailureErrCode      = 100006
	ReadSocketErrCode         = 100036
	WriteSocketErrCode        = 100037
	ListenErrCode             = 100038
	AcceptErrCode             = 100039
	ConfigLoadErrCode         = 200001
	UnsupportedBackendErrCode = 200002
	MkdirErrCode              = 300001
	FileStatErrCode           = 300002
	FileNoPermissionErrCode   = 300003
)

func NewUnknownErr() *PollErr {
	return &PollErr{msg: "unknown error", code: UnknownErrCode}
}

func NewInvalidParamErr() *PollErr {
	return &PollErr{msg: "invalid params", code: InvalidParamErrCode, errno: syscall.EINVAL}
}

func NewInvalidDescriptorErr() *PollErr {
	return &PollErr{msg: "invalid poll descriptor", code: InvalidDescriptorErrCode, errno: syscall.EBADF}
}

func NewAlreadyExistsErr() *PollErr {
	return &PollErr{msg: "descriptor already registered", code: AlreadyExistsErrCode, errno: syscall.EEXIST}
}

func NewNotFoundErr() *PollErr {
	return &PollErr{msg: "descriptor not registered", code: NotFoundErrCode, errno: syscall.ENOENT}
}

func NewResourceExhaustedErr() *PollErr {
	return &PollErr{msg: "resource exhausted", code: ResourceExhaustedErrCode, errno: syscall.ENFILE}
}

func NewNativeFailureErr() *PollErr {
	return &PollErr{msg: "native wait primitive failed", code: NativeFailureErrCode, errno: syscall.EIO}
}

func NewReadSocketErr() *PollErr {
	return &PollErr{msg: "read socket failed", code: ReadSocketErrCode}
}

func NewWriteSocketErr() *PollErr {
	return &PollErr{msg: "write socket failed", code: WriteSocketErrCode}
}

func NewListenErr() *PollErr {
	return &PollErr{msg: "listen failed", code: ListenErrCode}
}

func NewAcceptErr() *PollErr {
	return &PollErr{msg: "accept failed", code: AcceptErrCode}
}

func NewConfigLoadErr() *PollErr {
	return &PollErr{msg: "load config failed", code: ConfigLoadErrCode}
}

func NewUnsupportedBackendErr() *PollErr {
	return &PollErr{msg: "unsupported poller backend", code: UnsupportedBackendErrCode}
}

func NewMkdirErr() *PollErr {
	return &PollErr{msg: "mkdir failed", code: MkdirErrCode}
}

func NewFileStatErr() *PollErr {
	return &PollErr{msg: "stat file failed", code: FileStatErrCode}
}

func NewFileNoPermissionErr() *PollErr {
	return &PollErr{msg: "no permission", code: FileNoPermissionErrCode}
}
