package executor

import (
	"fmt"
	"strings"
)

// forbiddenDirs may not appear as a path prefix of any argument.
var forbiddenDirs = []string{"/etc", "/sys", "/proc", "/dev"}

// allowedUnder are exceptions inside forbiddenDirs; /dev/shm is a common tmpfs work dir.
var allowedUnder = []string{"/dev/shm"}

// maxArgLength bounds a single argument; filter graphs for long clip lists stay well below it.
const maxArgLength = 64 * 1024

// ValidateCommandRequest performs safety checks before command execution:
//  1. Command whitelist (if configured)
//  2. Argument safety (no path traversal, no system directory access, bounded size)
func ValidateCommandRequest(req CommandRequest, config Config) error {
	// 1. Check command whitelist
	if len(config.AllowedCommands) > 0 {
		allowed := false
		for _, cmd := range config.AllowedCommands {
			if req.Command == cmd {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("command %s is not in whitelist (allowed: %v)", req.Command, config.AllowedCommands)
		}
	}

	// 2. Check argument safety
	for _, arg := range req.Args {
		if len(arg) > maxArgLength {
			return fmt.Errorf("argument exceeds %d bytes", maxArgLength)
		}

		if hasParentElement(arg) {
			return fmt.Errorf("argument contains a '..' path element (path traversal attempt): %s", arg)
		}

		if dir := forbiddenDir(arg); dir != "" {
			return fmt.Errorf("argument attempts to access forbidden system directory %s: %s", dir, arg)
		}
	}

	return nil
}

// hasParentElement reports whether any slash-separated element of arg is "..".
// Dots inside a file name ("final..mix.mp3") are not traversal.
func hasParentElement(arg string) bool {
	for _, elem := range strings.Split(arg, "/") {
		if elem == ".." {
			return true
		}
	}
	return false
}

func underDir(arg, dir string) bool {
	return arg == dir || strings.HasPrefix(arg, dir+"/")
}

func forbiddenDir(arg string) string {
	for _, ok := range allowedUnder {
		if underDir(arg, ok) {
			return ""
		}
	}
	for _, dir := range forbiddenDirs {
		if underDir(arg, dir) {
			return dir
		}
	}
	return ""
}
