/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package sxe

import (
	stderrors "errors"

	"github.com/nabbar/sxe/errors"
)

// Pending is returned by write-side operations that were accepted but whose
// completion is asynchronous — the source's InProgress/WouldBlock, which is
// not a failure and therefore not an errors.Error: callers check err ==
// sxe.Pending rather than inspecting an error code.
var Pending = stderrors.New("sxe: operation accepted, completion is asynchronous")

const (
	ErrorParamsInvalid errors.CodeError = iota + errors.MinPkgSxe
	ErrorPoolExhausted
	ErrorAddressInUse
	ErrorAlreadyConnected
	ErrorNoConnection
	ErrorEndOfFile
	ErrorWriteFailed
	ErrorAlreadyClosed
	ErrorSendfilePending
	ErrorDeferredPending
	ErrorInternal
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorParamsInvalid)
	errors.RegisterIdFctMessage(ErrorParamsInvalid, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorParamsInvalid:
		return "given endpoint parameters are invalid"
	case ErrorPoolExhausted:
		return "no unused endpoint slots"
	case ErrorAddressInUse:
		return "address already in use"
	case ErrorAlreadyConnected:
		return "endpoint is already connected or listening"
	case ErrorNoConnection:
		return "endpoint has no active connection"
	case ErrorEndOfFile:
		return "clean stream termination"
	case ErrorWriteFailed:
		return "unrecoverable send failure"
	case ErrorAlreadyClosed:
		return "endpoint is already closed"
	case ErrorSendfilePending:
		return "a sendfile or send_buffers call is already pending on this endpoint"
	case ErrorDeferredPending:
		return "a different deferred callback is already pending on this endpoint"
	case ErrorInternal:
		return "endpoint invariant violation"
	}

	return ""
}
