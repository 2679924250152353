package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Reserved command values.
const (
	AverageRequest int64 = 0
	Terminate      int64 = -1
)

// MaxDatagram is the receive buffer size. Decimal int64 text needs at most 20 bytes.
const MaxDatagram = 1024

var ErrMalformed = errors.New("malformed payload")

type Command uint8

const (
	CommandValue Command = iota
	CommandAverage
	CommandTerminate
)

func (c Command) String() string {
	switch c {
	case CommandAverage:
		return "average"
	case CommandTerminate:
		return "terminate"
	default:
		return "value"
	}
}

// Classify maps a decoded integer onto the command it carries.
func Classify(v int64) Command {
	switch v {
	case AverageRequest:
		return CommandAverage
	case Terminate:
		return CommandTerminate
	default:
		return CommandValue
	}
}

// Encode returns the decimal text of v.
func Encode(v int64) []byte {
	return strconv.AppendInt(nil, v, 10)
}

// Decode trims surrounding whitespace from b and parses it as a signed decimal integer.
func Decode(b []byte) (int64, error) {
	text := bytes.TrimSpace(b)
	v, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
	}
	return v, nil
}
