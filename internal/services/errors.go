package services

import "errors"

var (
	ErrLayawayNotFound       = errors.New("layaway not found")
	ErrLayawayClosed         = errors.New("layaway is not active")
	ErrProductNotFound       = errors.New("product not found")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrCategoryNotFound      = errors.New("expense category not found")
	ErrCategoryExists        = errors.New("expense category already exists")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrPaymentMethodExists   = errors.New("payment method already exists")
)
