package errs

import (
	"errors"
	"fmt"
)

type Error interface {
	Error() string
	Code() int32
	Msg() string
	SetErr(err error) Error
	SetMsg(msg string) Error
}

type bizError struct {
	code int32
	msg  string
}

func (bizErr *bizError) Error() string {
	return fmt.Sprintf("%d:%s", bizErr.code, bizErr.msg)
}

func (bizErr *bizError) Code() int32 {
	return bizErr.code
}

func (bizErr *bizError) Msg() string {
	return bizErr.msg
}

func (bizErr *bizError) SetErr(err error) Error {
	return New(bizErr.Code(), err.Error())
}

func (bizErr *bizError) SetMsg(msg string) Error {
	return New(bizErr.Code(), msg)
}

// Is reports whether target carries the same code, so errors.Is works against the
// package level values after SetMsg/SetErr produced a copy.
func (bizErr *bizError) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code() == bizErr.code
}

func New(code int32, msg string) Error {
	return &bizError{
		code: code,
		msg:  msg,
	}
}

func ErrorEqual(err1, err2 Error) bool {
	// 都为空
	if err1 == nil && err2 == nil {
		return true
	}

	// 只有一个不为空
	if err1 == nil || err2 == nil {
		return false
	}

	// 都不为空
	return err1.Code() == err2.Code()
}

// IsConfigError reports whether err is a deployer/programmer mistake in the schema
// or adapter configuration rather than a runtime data condition.
func IsConfigError(err error) bool {
	var bizErr Error
	if !errors.As(err, &bizErr) {
		return false
	}
	return bizErr.Code() >= 3_0000 && bizErr.Code() < 4_0000
}

var (
	Success        = New(0, "success")
	ServerError    = New(1_0001, "internal server error")
	ParamError     = New(1_0002, "param error")
	TooManyRequest = New(1_0003, "too many request")

	UserNotExist          = New(2_0001, "user not exist or password incorrect")
	PasswordIncorrect     = UserNotExist
	UserEmailDuplicated   = New(2_0003, "user email duplicated")
	SessionNotExist       = New(2_0004, "session not exist or expired")
	CredentialAccountMiss = New(2_0005, "credential account not found")
	VerificationNotExist  = New(2_0006, "verification not exist or expired")

	// configuration errors
	ModelNotFound          = New(3_0001, "model not found in schema")
	FieldNotFound          = New(3_0002, "field not found in model")
	JoinForeignKeyMissing  = New(3_0003, "no foreign key found between joined models")
	JoinForeignKeyMultiple = New(3_0004, "multiple foreign keys found between joined models")
	NumericIDUnsupported   = New(3_0005, "backend does not support numeric ids")
	IDGeneratorConflict    = New(3_0006, "custom id generator conflicts with numeric id mode")
	CreateSchemaMissing    = New(3_0007, "backend does not implement schema generation")
	InvalidAdapterConfig   = New(3_0008, "invalid adapter configuration")

	// validation errors
	InvalidWhereValue = New(4_0001, "invalid where clause value")
	InvalidNumericID  = New(4_0002, "value is not a valid numeric id")
	DuplicateKey      = New(4_0003, "duplicate key")
)
