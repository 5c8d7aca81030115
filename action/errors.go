// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package action

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// The three expected rejection classes. They reject exactly the offending
// action and leave state untouched; everything else (storage failures,
// type mismatches) is fatal and must propagate out of block processing.

type validationError struct {
	msg string
}

func (e validationError) Error() string { return e.msg }

func errValidationf(format string, args ...any) error {
	return validationError{msg: fmt.Sprintf(format, args...)}
}

type authorizationError struct {
	msg string
}

func (e authorizationError) Error() string { return e.msg }

func errAuthorizationf(format string, args ...any) error {
	return authorizationError{msg: fmt.Sprintf(format, args...)}
}

type insufficientFundsError struct {
	asset  string
	needed *uint256.Int
	have   *uint256.Int
}

func (e insufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: asset %q, need %v, have %v", e.asset, e.needed, e.have)
}

// Validationf builds a validation rejection for callers outside the
// pipeline, such as transaction-level screening.
func Validationf(format string, args ...any) error {
	return errValidationf(format, args...)
}

// IsValidation reports whether err is a stateless rule violation.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

// IsAuthorization reports whether err is a mutable authorization failure,
// such as a stale sudo address or a missing bridge registration.
func IsAuthorization(err error) bool {
	var a authorizationError
	return errors.As(err, &a)
}

// IsInsufficientFunds reports whether err is a balance check failure.
func IsInsufficientFunds(err error) bool {
	var i insufficientFundsError
	return errors.As(err, &i)
}

// IsExpected reports whether err is a per-action rejection rather than a
// fatal engine failure.
func IsExpected(err error) bool {
	return IsValidation(err) || IsAuthorization(err) || IsInsufficientFunds(err)
}
