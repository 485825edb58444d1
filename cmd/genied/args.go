package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/speters/geniego/pkg/genie"
)

var errBadArg = errors.New("bad argument")

// parseObject accepts an object type name like "leddigits" or its number
func parseObject(s string) (genie.ObjectType, error) {
	if t, ok := genie.ObjectTypes[strings.ToLower(s)]; ok {
		return t, nil
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown object type %q", errBadArg, s)
	}
	return genie.ObjectType(n), nil
}

func parseByte(s string) (byte, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number within 0..255", errBadArg, s)
	}
	return byte(n), nil
}

// pendingReplies takes every report queued so far without waiting for more
func pendingReplies() (reports []genie.Frame, magic []genie.MagicFrame) {
	reports, magic = []genie.Frame{}, []genie.MagicFrame{}
	for {
		f, ok := dev.TryGetReply()
		if !ok {
			break
		}
		reports = append(reports, f)
	}
	for {
		m, ok := dev.TryGetMagicReply()
		if !ok {
			break
		}
		magic = append(magic, m)
	}
	return reports, magic
}
