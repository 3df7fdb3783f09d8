//go:build !windows

package main

import (
	"errors"
	"log"

	"dinputproxy/internal/api"
	"dinputproxy/internal/proxy"
)

func newSystemSource(axes proxy.Axes, logger *log.Logger) (api.Source, error) {
	return nil, errors.New("hardware polling requires windows")
}
