//go:build windows

package ghostscript

import "syscall"

const createNoWindow = 0x08000000

// sysProcAttr keeps a console window from flashing up for every file.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{HideWindow: true, CreationFlags: createNoWindow}
}
