package sessionlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

const readBufferSize = 64 * 1024

// eachLine streams the file at path and calls fn with every line and its
// zero-based offset. Returning false from fn stops the scan early. The file
// is closed before eachLine returns.
func eachLine(path string, fn func(offset int, line []byte) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, readBufferSize)
	offset := 0
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			if !fn(offset, line) {
				return nil
			}
			offset++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read line %d: %w", offset, err)
		}
	}
}
