// Package validator provides a small validation abstraction for input and
// domain structs.
//
// Business code should depend on the Validator interface so validation can be
// shared and tested consistently. The concrete implementation is backed by
// go-playground/validator v10 with English translations and the custom
// `phone` rule used across the sign-in flow.
package validator
