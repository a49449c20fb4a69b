//go:build tools

// Package portfolio pins the mockgen version used by go:generate.
package portfolio

import (
	_ "go.uber.org/mock/mockgen"
)
