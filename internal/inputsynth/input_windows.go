//go:build windows

package inputsynth

import (
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode/utf16"
	"unsafe"
)

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	sendInput        = user32.NewProc("SendInput")
	setcursorpos     = user32.NewProc("SetCursorPos")
	mapvirtualkey    = user32.NewProc("MapVirtualKeyW")
	getSystemMetrics = user32.NewProc("GetSystemMetrics")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfMove       = 0x0001
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfWheel      = 0x0800
	mouseeventfAbsolute   = 0x8000
	mouseeventfVirtualDsk = 0x4000

	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79

	keyeventfKeyUp       = 0x0002
	keyeventfExtendedKey = 0x0001
	keyeventfUnicode     = 0x0004

	mapvkVkToVsc = 0

	// settleDelay lets the target window register the cursor move before
	// the button event arrives; clickGap separates the two clicks of a
	// double click. Both per spec.
	settleDelay = 50 * time.Millisecond
	clickGap    = 100 * time.Millisecond

	// dragSteps/dragStepDelay interpolate a drag move into steps a
	// drag-aware app can track, rather than one teleporting jump.
	dragSteps     = 20
	dragStepDelay = 10 * time.Millisecond
)

type mouseInput struct {
	dx, dy      int32
	mouseData   uint32
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	padding   [4]byte
	mi        mouseInput
}

// windowsSynthesizer implements Synthesizer using the Win32 SendInput API.
type windowsSynthesizer struct {
	mu           sync.Mutex
	cachedVX     int
	cachedVY     int
	cachedCW     int
	cachedCH     int
	metricsValid bool
}

func newPlatformSynthesizer() (Synthesizer, error) {
	s := &windowsSynthesizer{}
	s.refreshScreenMetrics()
	return s, nil
}

// refreshScreenMetrics refreshes the cached virtual screen bounds used to
// convert screen coordinates into SendInput's normalized 0-65535 space.
func (s *windowsSynthesizer) refreshScreenMetrics() {
	vx, _, _ := getSystemMetrics.Call(smXVirtualScreen)
	vy, _, _ := getSystemMetrics.Call(smYVirtualScreen)
	cw, _, _ := getSystemMetrics.Call(smCXVirtualScreen)
	ch, _, _ := getSystemMetrics.Call(smCYVirtualScreen)
	s.mu.Lock()
	s.cachedVX, s.cachedVY = int(vx), int(vy)
	s.cachedCW, s.cachedCH = int(cw), int(ch)
	s.metricsValid = s.cachedCW > 0 && s.cachedCH > 0
	s.mu.Unlock()
}

func (s *windowsSynthesizer) screenToAbsolute(x, y int) (absX, absY int32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.metricsValid {
		return 0, 0, false
	}
	absX = int32(((x - s.cachedVX) * 65536) / s.cachedCW)
	absY = int32(((y - s.cachedVY) * 65536) / s.cachedCH)
	return absX, absY, true
}

func (s *windowsSynthesizer) sendMouseInput(flags uint32, mouseData uint32) error {
	inp := input{inputType: inputMouse}
	inp.mi.dwFlags = flags
	inp.mi.mouseData = mouseData
	ret, _, _ := sendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("SendInput failed, flags=0x%X", flags)
	}
	return nil
}

func (s *windowsSynthesizer) MoveMouse(x, y int) error {
	// SetCursorPos is fast and auto-coalesces rapid moves; used for plain
	// hover. Button-down moves go through moveWhileDragging instead so apps that key
	// off WM_MOUSEMOVE + MK_LBUTTON (drag-select) see the move.
	ret, _, _ := setcursorpos.Call(uintptr(x), uintptr(y))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos failed")
	}
	return nil
}

func (s *windowsSynthesizer) moveWhileDragging(x, y int) error {
	vx, vy, ok := s.screenToAbsolute(x, y)
	if !ok {
		return s.MoveMouse(x, y)
	}
	inp := input{inputType: inputMouse}
	inp.mi.dx = vx
	inp.mi.dy = vy
	inp.mi.dwFlags = mouseeventfMove | mouseeventfAbsolute | mouseeventfVirtualDsk
	ret, _, _ := sendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("SendInput failed for drag move")
	}
	return nil
}

// interpolatedDrag moves from (startX, startY) to (endX, endY) in
// dragSteps linear steps, sleeping dragStepDelay between each so
// drag-aware apps see the full path instead of a single teleporting jump.
func (s *windowsSynthesizer) interpolatedDrag(startX, startY, endX, endY int) error {
	for i := 1; i <= dragSteps; i++ {
		x := startX + (endX-startX)*i/dragSteps
		y := startY + (endY-startY)*i/dragSteps
		if err := s.moveWhileDragging(x, y); err != nil {
			return err
		}
		if i < dragSteps {
			time.Sleep(dragStepDelay)
		}
	}
	return nil
}

func (s *windowsSynthesizer) Click(x, y int) error {
	if err := s.MoveMouse(x, y); err != nil {
		return err
	}
	time.Sleep(settleDelay)
	if err := s.sendMouseInput(mouseeventfLeftDown, 0); err != nil {
		return err
	}
	return s.sendMouseInput(mouseeventfLeftUp, 0)
}

func (s *windowsSynthesizer) RightClick(x, y int) error {
	if err := s.MoveMouse(x, y); err != nil {
		return err
	}
	time.Sleep(settleDelay)
	if err := s.sendMouseInput(mouseeventfRightDown, 0); err != nil {
		return err
	}
	return s.sendMouseInput(mouseeventfRightUp, 0)
}

func (s *windowsSynthesizer) DoubleClick(x, y int) error {
	if err := s.Click(x, y); err != nil {
		return err
	}
	time.Sleep(clickGap)
	return s.Click(x, y)
}

func (s *windowsSynthesizer) Drag(startX, startY, endX, endY int) error {
	s.refreshScreenMetrics() // cache once per drag — avoid 4 syscalls per move

	// Position the cursor before pressing — without this the button press
	// fires at the previous cursor location and drag-select starts from the
	// wrong origin.
	if err := s.MoveMouse(startX, startY); err != nil {
		return err
	}
	if err := s.sendMouseInput(mouseeventfLeftDown, 0); err != nil {
		return err
	}
	if err := s.interpolatedDrag(startX, startY, endX, endY); err != nil {
		return err
	}
	return s.sendMouseInput(mouseeventfLeftUp, 0)
}

func (s *windowsSynthesizer) Scroll(x, y, amount int) error {
	if err := s.MoveMouse(x, y); err != nil {
		return err
	}
	// Windows uses multiples of WHEEL_DELTA (120); positive = scroll up.
	return s.sendMouseInput(mouseeventfWheel, uint32(amount*120))
}

func (s *windowsSynthesizer) sendKeyEvent(vk uint16, up bool) error {
	inp := input{inputType: inputKeyboard}
	ki := (*keybdInput)(unsafe.Pointer(&inp.mi))
	ki.wVk = vk
	ki.wScan = vkToScanCode(vk)
	if up {
		ki.dwFlags = keyeventfKeyUp
	}
	if isExtendedKey(vk) {
		ki.dwFlags |= keyeventfExtendedKey
	}
	ret, _, _ := sendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("SendInput failed for vk=0x%X up=%v", vk, up)
	}
	return nil
}

// sendUnicodeCodeUnit synthesizes a down/up pair for a single UTF-16 code
// unit via KEYEVENTF_UNICODE, bypassing virtual-key lookup entirely — this
// is how SendInput types characters with no keyboard-layout mapping (most
// non-ASCII text).
func (s *windowsSynthesizer) sendUnicodeCodeUnit(unit uint16, up bool) error {
	inp := input{inputType: inputKeyboard}
	ki := (*keybdInput)(unsafe.Pointer(&inp.mi))
	ki.wScan = unit
	ki.dwFlags = keyeventfUnicode
	if up {
		ki.dwFlags |= keyeventfKeyUp
	}
	ret, _, _ := sendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("SendInput failed for unicode unit=0x%X up=%v", unit, up)
	}
	return nil
}

func (s *windowsSynthesizer) TypeText(text string) error {
	for _, unit := range utf16.Encode([]rune(text)) {
		if err := s.sendUnicodeCodeUnit(unit, false); err != nil {
			return err
		}
		if err := s.sendUnicodeCodeUnit(unit, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *windowsSynthesizer) PressKeys(chord KeyChord) error {
	vk := charToVK(chord.Key)
	if vk == 0 {
		return fmt.Errorf("unknown key: %s", chord.Key)
	}

	repeat := chord.Repeat
	if repeat < 1 {
		repeat = 1
	}

	for _, mod := range chord.Modifiers {
		s.sendModifierKey(mod, false)
	}

	var err error
	for i := 0; i < repeat; i++ {
		if err = s.sendKeyEvent(vk, false); err != nil {
			break
		}
		if err = s.sendKeyEvent(vk, true); err != nil {
			break
		}
	}

	for i := len(chord.Modifiers) - 1; i >= 0; i-- {
		s.sendModifierKey(chord.Modifiers[i], true)
	}

	return err
}

func (s *windowsSynthesizer) sendModifierKey(mod string, up bool) {
	var vk uint16
	switch strings.ToLower(mod) {
	case "ctrl", "control":
		vk = 0x11 // VK_CONTROL
	case "alt":
		vk = 0x12 // VK_MENU
	case "shift":
		vk = 0x10 // VK_SHIFT
	case "meta", "cmd":
		// Mac Cmd -> Windows Ctrl so copy/paste/undo behave as expected.
		vk = 0x11
	case "win":
		vk = 0x5B // VK_LWIN
	default:
		return
	}
	s.sendKeyEvent(vk, up)
}

// vkToScanCode uses MapVirtualKeyW to derive the hardware scan code for a
// VK. Many apps (RDP, games, some text editors) require the scan code
// field to be populated in the INPUT struct for key events to register.
func vkToScanCode(vk uint16) uint16 {
	sc, _, _ := mapvirtualkey.Call(uintptr(vk), mapvkVkToVsc)
	return uint16(sc)
}

// isExtendedKey returns true for keys that require the
// KEYEVENTF_EXTENDEDKEY flag (right-hand nav cluster, numpad enter, etc.).
func isExtendedKey(vk uint16) bool {
	switch vk {
	case 0x21, 0x22, 0x23, 0x24, // PageUp, PageDown, End, Home
		0x25, 0x26, 0x27, 0x28, // Arrow keys
		0x2D, 0x2E, // Insert, Delete
		0x5B, 0x5C, // LWin, RWin
		0x6F, // Numpad Divide
		0x90, // NumLock
		0x91, // ScrollLock
		0x2C: // PrintScreen
		return true
	}
	return false
}

func charToVK(key string) uint16 {
	// Single ASCII letters -> VK_A..VK_Z (0x41..0x5A)
	// Single ASCII digits  -> VK_0..VK_9 (0x30..0x39)
	if len(key) == 1 {
		c := key[0]
		if c >= 'a' && c <= 'z' {
			return uint16(c - 'a' + 'A')
		}
		if c >= 'A' && c <= 'Z' {
			return uint16(c)
		}
		if c >= '0' && c <= '9' {
			return uint16(c)
		}
	}

	switch strings.ToLower(key) {
	// Whitespace / editing
	case "enter", "return":
		return 0x0D
	case "tab":
		return 0x09
	case "space":
		return 0x20
	case "backspace":
		return 0x08
	case "escape", "esc":
		return 0x1B
	case "delete", "del":
		return 0x2E
	case "insert":
		return 0x2D

	// Navigation
	case "home":
		return 0x24
	case "end":
		return 0x23
	case "pageup":
		return 0x21
	case "pagedown":
		return 0x22
	case "up":
		return 0x26
	case "down":
		return 0x28
	case "left":
		return 0x25
	case "right":
		return 0x27

	// Function keys
	case "f1":
		return 0x70
	case "f2":
		return 0x71
	case "f3":
		return 0x72
	case "f4":
		return 0x73
	case "f5":
		return 0x74
	case "f6":
		return 0x75
	case "f7":
		return 0x76
	case "f8":
		return 0x77
	case "f9":
		return 0x78
	case "f10":
		return 0x79
	case "f11":
		return 0x7A
	case "f12":
		return 0x7B

	// Symbol keys (OEM VK codes - US keyboard layout)
	case "-":
		return 0xBD // VK_OEM_MINUS
	case "=":
		return 0xBB // VK_OEM_PLUS (the =/+ key)
	case "[":
		return 0xDB // VK_OEM_4
	case "]":
		return 0xDD // VK_OEM_6
	case "\\":
		return 0xDC // VK_OEM_5
	case ";":
		return 0xBA // VK_OEM_1
	case "'":
		return 0xDE // VK_OEM_7
	case "`":
		return 0xC0 // VK_OEM_3
	case ",":
		return 0xBC // VK_OEM_COMMA
	case ".":
		return 0xBE // VK_OEM_PERIOD
	case "/":
		return 0xBF // VK_OEM_2

	// Numpad
	case "num0":
		return 0x60
	case "num1":
		return 0x61
	case "num2":
		return 0x62
	case "num3":
		return 0x63
	case "num4":
		return 0x64
	case "num5":
		return 0x65
	case "num6":
		return 0x66
	case "num7":
		return 0x67
	case "num8":
		return 0x68
	case "num9":
		return 0x69
	case "multiply":
		return 0x6A
	case "add":
		return 0x6B
	case "subtract":
		return 0x6D
	case "decimal":
		return 0x6E
	case "divide":
		return 0x6F

	// Lock / toggle keys
	case "capslock":
		return 0x14
	case "numlock":
		return 0x90
	case "scrolllock":
		return 0x91

	// Misc
	case "printscreen":
		return 0x2C
	case "pause":
		return 0x13
	}

	return 0
}

var _ Synthesizer = (*windowsSynthesizer)(nil)
