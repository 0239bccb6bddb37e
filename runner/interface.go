/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package runner exposes the shared helpers common to every runner flavor:
// the function types a runner drives and the panic recovery helper used by
// long-lived background goroutines across this module.
package runner

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
)

// FuncAction is the signature of any start or stop function driven by a
// runner. The given context is cancelled when the runner is asked to stop.
type FuncAction func(ctx context.Context) error

// RecoveryCaller logs a recovered panic value to stderr with the caller's
// identification and an optional list of extra information, followed by the
// goroutine stack. It does nothing if rec is nil, so it can be called
// unconditionally from a deferred recover block.
func RecoveryCaller(caller string, rec any, info ...string) {
	if rec == nil {
		return
	}

	_, _ = fmt.Fprintf(os.Stderr, "recovering panic in '%s': %v\n", caller, rec)

	for _, i := range info {
		if len(i) > 0 {
			_, _ = fmt.Fprintf(os.Stderr, "\t%s\n", i)
		}
	}

	_, _ = fmt.Fprintf(os.Stderr, "%s\n", debug.Stack())
}
