//go:build unix

package cli

import "syscall"

// daemonSysProcAttr starts the daemon in its own session, detached from
// the terminal.
func daemonSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
