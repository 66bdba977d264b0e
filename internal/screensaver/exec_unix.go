//go:build unix

package screensaver

import "syscall"

func sysProcAttr(detach bool) *syscall.SysProcAttr {
	if !detach {
		return nil
	}
	return &syscall.SysProcAttr{Setsid: true}
}
