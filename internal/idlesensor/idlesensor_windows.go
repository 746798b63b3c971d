//go:build windows

package idlesensor

import (
	"syscall"
	"time"
	"unsafe"
)

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	getLastInputInfo = user32.NewProc("GetLastInputInfo")
	getCursorPos     = user32.NewProc("GetCursorPos")
	getTickCount     = kernel32.NewProc("GetTickCount")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

type point struct {
	x, y int32
}

type windowsSensor struct{}

func newPlatformSensor() Sensor {
	return windowsSensor{}
}

func (windowsSensor) IdleDuration() time.Duration {
	var lii lastInputInfo
	lii.cbSize = uint32(unsafe.Sizeof(lii))

	ret, _, _ := getLastInputInfo.Call(uintptr(unsafe.Pointer(&lii)))
	if ret == 0 {
		return 0 // query failed — treat as active
	}

	tick, _, _ := getTickCount.Call()
	elapsedMs := uint32(tick) - lii.dwTime
	return time.Duration(elapsedMs) * time.Millisecond
}

func (windowsSensor) CursorPosition() (x, y int) {
	var p point
	ret, _, _ := getCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if ret == 0 {
		return 0, 0
	}
	return int(p.x), int(p.y)
}

var _ Sensor = windowsSensor{}
