// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command berview decodes BER encoded files using an ASN.1 schema.
//
// Usage:
//
//	berview [flags] SCHEMA... INPUT TYPE
//
// All schema files are loaded into one registry. INPUT is decoded as a
// sequence of data values of the type named TYPE. In batch mode every value
// is printed as soon as it has been decoded. With -i the whole input is
// decoded first and then shown in an interactive tree browser.
package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
)

func main() {
	cmd := newRootCommand(&app{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		newScreen: tcell.NewScreen,
	})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "berview: %v\n", err)
		os.Exit(1)
	}
}
