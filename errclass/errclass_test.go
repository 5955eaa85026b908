// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rbmk-project/nanosock/udpengine"
)

func TestNew(t *testing.T) {
	// testcase is a test case implemented by this function.
	type testcase struct {
		input  error
		expect string
	}

	// start with a test case for the nil error
	var tests = []testcase{
		{
			input:  nil,
			expect: "",
		},
	}

	// add tests for cases we can test with errors.Is
	for key, value := range errorsIsMap {
		tests = append(tests, testcase{
			input:  key,
			expect: value,
		})
	}

	// make sure wrapping does not defeat classification
	tests = append(tests, testcase{
		input:  fmt.Errorf("receive: %w", udpengine.ErrWouldBlock),
		expect: EWOULDBLOCK,
	})
	tests = append(tests, testcase{
		input:  fmt.Errorf("bind failed: %w", errEMSGSIZE),
		expect: EMSGSIZE,
	})

	// add tests for cases the common classifier handles
	tests = append(tests, testcase{
		input:  errors.New("lookup example.invalid: no such host"),
		expect: EDNS_NONAME,
	})

	// add test for unknown error
	tests = append(tests, testcase{
		input:  errors.New("unknown error"),
		expect: EGENERIC,
	})

	// run all tests
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.input), func(t *testing.T) {
			got := New(tt.input)
			if got != tt.expect {
				t.Errorf("New(%v) = %v; want %v", tt.input, got, tt.expect)
			}
		})
	}
}
