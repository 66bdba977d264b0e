//go:build !unix

package screensaver

import "syscall"

func sysProcAttr(bool) *syscall.SysProcAttr {
	return nil
}
