package domain

import "errors"

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrUnsupportedProductType = errors.New("unsupported product type")
	ErrPersistence            = errors.New("persistence failure")
)
