package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// レスポンスの "error" に出す機械向けの種別
type ErrorKind string

const (
	KindUnauthorized       ErrorKind = "Unauthorized"
	KindForbidden          ErrorKind = "Forbidden"
	KindValidation         ErrorKind = "ValidationError"
	KindStockUnavailable   ErrorKind = "StockUnavailable"
	KindGatewayUnavailable ErrorKind = "GatewayUnavailable"
	KindInvalidSignature   ErrorKind = "InvalidSignature"
	KindOrderNotFound      ErrorKind = "OrderNotFound"
	KindNotFound           ErrorKind = "NotFound"
	KindStateConflict      ErrorKind = "StateConflict"
	KindSettlementFailed   ErrorKind = "SettlementFailed"
	KindConflict           ErrorKind = "Conflict"
	KindRateLimited        ErrorKind = "RateLimited"
	KindInternal           ErrorKind = "InternalError"
)

var statusByKind = map[ErrorKind]int{
	KindUnauthorized:       http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindValidation:         http.StatusBadRequest,
	KindStockUnavailable:   http.StatusBadRequest,
	KindGatewayUnavailable: http.StatusBadGateway,
	KindInvalidSignature:   http.StatusBadRequest,
	KindOrderNotFound:      http.StatusNotFound,
	KindNotFound:           http.StatusNotFound,
	KindStateConflict:      http.StatusConflict,
	KindSettlementFailed:   http.StatusConflict,
	KindConflict:           http.StatusConflict,
	KindRateLimited:        http.StatusTooManyRequests,
	KindInternal:           http.StatusInternalServerError,
}

// Status はKindに対応するHTTPステータス。未知のKindは500
func (k ErrorKind) Status() int {
	if s, ok := statusByKind[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// handler がそのままレスポンスにできるエラー。
// Err は原因（ログ用）でレスポンスには出さない。
type HTTPError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Details any
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Status, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(kind ErrorKind, message string) error {
	return &HTTPError{
		Kind:    kind,
		Status:  kind.Status(),
		Message: message,
	}
}

// 原因つき
func WrapHTTPError(kind ErrorKind, err error, message string) error {
	return &HTTPError{
		Kind:    kind,
		Status:  kind.Status(),
		Message: message,
		Err:     err,
	}
}

// 詳細（商品IDなど）をつける
func WithDetails(err error, details any) error {
	he, ok := AsHTTPError(err)
	if !ok {
		return err
	}
	cp := *he
	cp.Details = details
	return &cp
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// IsKind はエラーが指定の種別か
func IsKind(err error, kind ErrorKind) bool {
	he, ok := AsHTTPError(err)
	return ok && he.Kind == kind
}

func dbError(err error) error {
	return WrapHTTPError(KindInternal, err, "db error")
}
