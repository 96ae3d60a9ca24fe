package shell

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/gdamore/tcell/v2"
)

var (
	crashMu     sync.Mutex
	crashScreen tcell.Screen
)

// SetCrashScreen registers the screen restored by HandleCrash
func SetCrashScreen(s tcell.Screen) {
	crashMu.Lock()
	crashScreen = s
	crashMu.Unlock()
}

// HandleCrash restores the terminal, prints the panic with its stack trace and exits
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	s := crashScreen
	crashScreen = nil
	crashMu.Unlock()
	if s != nil {
		s.Fini()
	}

	os.Stdout.Sync()
	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery
// Use this instead of the 'go' keyword so a crash never leaves the terminal in raw mode
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
