//go:build !linux

package genie

import "errors"

func raisePriority() error {
	return errors.New("realtime scheduling is only supported on linux")
}
