package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrEmptyName is returned when Log.AppName or Log.ServiceName is blank.
var ErrEmptyName = errors.New("can not be empty")

func requireName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.Wrapf(ErrEmptyName, "config Log.%s", field)
	}

	return nil
}

// writeFailed reports events zerolog could not write. The logger itself is the broken
// part, so the report goes straight to stderr.
func writeFailed(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "logger: dropped event: %v\n", err)
}
