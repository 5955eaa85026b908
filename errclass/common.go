//go:build unix || windows

// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import "github.com/rbmk-project/common/errclass"

// fallback classifies errors using the common classifier.
func fallback(err error) string {
	return errclass.New(err)
}
