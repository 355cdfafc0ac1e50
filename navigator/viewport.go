// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package navigator

// A Viewport is a window of Height lines starting at line Top.
type Viewport struct {
	Top    int
	Height int
}

// Follow scrolls v so that line cur of total lines is visible. As long as cur
// stays within the window nothing moves. Once it leaves the window, v scrolls
// by whole lines so that cur ends up half a window away from the edge it
// crossed. The window never scrolls past the last line.
func (v *Viewport) Follow(cur, total int) {
	if v.Height <= 0 {
		v.Top = cur
		return
	}
	switch {
	case cur < v.Top:
		v.Top = cur - v.Height/2
	case cur >= v.Top+v.Height:
		v.Top = cur - v.Height + 1 + v.Height/2
	}
	v.Top = max(min(v.Top, total-v.Height), 0)
}
