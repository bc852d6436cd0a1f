//go:build windows

package cli

import "syscall"

// daemonSysProcAttr detaches the daemon from the console's process group.
func daemonSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
