package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageFatal marks open/close failures of the freshness store.
	// 이 에러만 전체 스크리닝을 중단시킴
	ErrStorageFatal = errors.New("storage fatal")

	// ErrDuplicateKey is returned by stores when a symbol row already exists
	ErrDuplicateKey = errors.New("duplicate key")
)

// StorageRowError is a failed single-row cache operation.
// It aborts the pipeline of one symbol, never the whole run.
type StorageRowError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *StorageRowError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *StorageRowError) Unwrap() error {
	return e.Err
}

// IsStorageFatal reports whether err should abort the whole run
func IsStorageFatal(err error) bool {
	return errors.Is(err, ErrStorageFatal)
}
