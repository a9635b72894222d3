package interp

import (
	"bufio"
	"os"
	"strings"

	"github.com/relang/bcl/internal/bclerr"
)

// OPEN/READ/WRITE/CLOSE give scripts basic blocking file I/O against an
// opaque file-handle name bound to an open OS stream.

func builtinOpen(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 2 {
		return "", sigOk, bclerr.New(bclerr.Arity, "OPEN requires a path and a mode")
	}
	path, mode := args[0], args[1]

	var flag int
	switch mode {
	case "r":
		flag = os.O_RDONLY
	case "w":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return "", sigOk, bclerr.New(bclerr.IO, "OPEN: unsupported mode %q", mode)
	}

	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return "", sigOk, bclerr.New(bclerr.IO, "OPEN %q: %v", path, err)
	}
	handle := i.allocFileHandle()
	i.Files[handle] = &FileHandle{Name: handle, F: f, Mode: mode}
	return handle, sigOk, nil
}

func builtinClose(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 1 {
		return "", sigOk, bclerr.New(bclerr.Arity, "CLOSE requires a file handle")
	}
	fh, ok := i.Files[args[0]]
	if !ok {
		return "", sigOk, bclerr.New(bclerr.IO, "CLOSE: no such handle %q", args[0])
	}
	err := fh.F.Close()
	delete(i.Files, args[0])
	if err != nil {
		return "", sigOk, bclerr.New(bclerr.IO, "CLOSE %q: %v", args[0], err)
	}
	return "", sigOk, nil
}

// READ handle: returns the next line, or empty with EOF flagged once the
// stream is exhausted. This blocks the interpreter — scripts wanting
// concurrency register the handle's fd with the event loop instead.
func builtinRead(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 1 {
		return "", sigOk, bclerr.New(bclerr.Arity, "READ requires a file handle")
	}
	fh, ok := i.Files[args[0]]
	if !ok {
		return "", sigOk, bclerr.New(bclerr.IO, "READ: no such handle %q", args[0])
	}
	if fh.EOF {
		return "", sigOk, nil
	}
	if fh.reader == nil {
		fh.reader = bufio.NewReader(fh.F)
	}
	line, err := fh.reader.ReadString('\n')
	if err != nil {
		fh.EOF = true
	}
	return strings.TrimRight(line, "\r\n"), sigOk, nil
}

func builtinWrite(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) < 1 {
		return "", sigOk, bclerr.New(bclerr.Arity, "WRITE requires a file handle")
	}
	fh, ok := i.Files[args[0]]
	if !ok {
		return "", sigOk, bclerr.New(bclerr.IO, "WRITE: no such handle %q", args[0])
	}
	text := strings.Join(args[1:], " ")
	if _, err := fh.F.WriteString(text); err != nil {
		return "", sigOk, bclerr.New(bclerr.IO, "WRITE %q: %v", args[0], err)
	}
	return "", sigOk, nil
}
