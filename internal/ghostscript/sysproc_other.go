//go:build !windows

package ghostscript

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
