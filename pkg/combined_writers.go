package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// FanOutWriter copies every write to all of its outputs. A failing output
// does not stop the others; its error is reported together with the rest.
type FanOutWriter struct {
	outputs []io.Writer
}

func NewFanOutWriter(outputs ...io.Writer) *FanOutWriter {
	return &FanOutWriter{outputs: outputs}
}

func (fw *FanOutWriter) Outputs() int {
	return len(fw.outputs)
}

// Write reports len(p) when at least one output took the whole buffer.
func (fw *FanOutWriter) Write(p []byte) (int, error) {
	var errs error
	accepted := false
	for _, out := range fw.outputs {
		n, err := out.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		accepted = true
	}
	if !accepted {
		return 0, errs
	}
	return len(p), errs
}

// Close closes the outputs that are closers, stdout and stderr excluded.
func (fw *FanOutWriter) Close() error {
	var errs error
	for _, out := range fw.outputs {
		if isStdStream(out) {
			continue
		}
		if c, ok := out.(io.Closer); ok {
			errs = multierr.Append(errs, c.Close())
		}
	}
	return errs
}
