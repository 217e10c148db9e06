// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/ezpark/ezpark/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
