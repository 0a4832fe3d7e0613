package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// readPassword is swapped out in tests so they never touch a terminal.
var readPassword = term.ReadPassword

// lineSource yields one line of user input at a time.
type lineSource interface {
	ReadLine(ctx context.Context) (string, error)
}

type lineResult struct {
	line string
	err  error
}

// lineReader reads its input on a single goroutine and hands every line to
// the next caller that asks for one. A caller that gives up waiting leaves
// the line for the next one.
type lineReader struct {
	r    *bufio.Reader
	ch   chan lineResult
	once sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r), ch: make(chan lineResult)}
}

// lines starts the reader on first use. The channel is closed after the
// last line.
func (l *lineReader) lines() <-chan lineResult {
	l.once.Do(func() { go l.pump() })
	return l.ch
}

func (l *lineReader) pump() {
	defer close(l.ch)
	for {
		line, err := l.r.ReadString('\n')
		if line != "" {
			l.ch <- lineResult{line: line}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				l.ch <- lineResult{err: err}
			}
			return
		}
	}
}

// ReadLine returns the next line including its newline, io.EOF once the
// input is exhausted, or ctx.Err() if ctx ends first.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case res, ok := <-l.lines():
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// GetSimpleText writes "label: " to w and returns the next line from src
// with surrounding spaces removed.
func GetSimpleText(ctx context.Context, src lineSource, label string, w io.Writer) (string, error) {
	fmt.Fprintf(w, "%s: ", label)

	line, err := src.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword writes "label: " to w and reads a line from the terminal
// without echo. Callers wipe the result with common.WipeByteArray.
func GetPassword(w io.Writer, label string) ([]byte, error) {
	fmt.Fprintf(w, "%s: ", label)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	return pw, err
}
