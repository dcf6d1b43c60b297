package services

import "fmt"

// ErrorKind разбивает ошибки верификации на четыре класса,
// которые HTTP-слой отображает в 400/401/403/500.
type ErrorKind int

const (
	// KindBadRequest — кривой вход: не хватает полей, не парсится адрес/подпись/ключ.
	KindBadRequest ErrorKind = iota
	// KindUnauthorized — proof криптографически или по времени невалиден,
	// клиент должен начать handshake заново.
	KindUnauthorized
	// KindForbidden — нарушение политики: домен вне allow-list, чужой кошелёк.
	KindForbidden
	// KindInternal — отказ хранилища, можно повторить запрос.
	KindInternal
)

type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(msg string) *Error   { return &Error{Kind: KindBadRequest, Msg: msg} }
func unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Msg: msg} }

func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}
