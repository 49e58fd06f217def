// Package hal defines the narrow interfaces through which the kernel core
// talks to console/keyboard/serial drivers. Those drivers (a VGA text
// console, a 16550 UART, a PS/2 keyboard decoder) are external
// collaborators outside this module's scope; hal only fixes the contract
// they must satisfy so that kfmt/early has somewhere to write to.
package hal

// Terminal is the minimal sink that kfmt/early.Printf writes formatted
// kernel diagnostics to. A concrete VGA or serial console driver attaches
// itself via AttachTerminal during boot; until it does, ActiveTerminal is a
// no-op sink so that early boot code can call Printf safely.
type Terminal interface {
	Write(p []byte) (int, error)
	WriteByte(b byte)
	Clear()
}

// KeyboardSink is the contract for a receiver of decoded scancodes. The
// keyboard decoder itself lives outside this module. The trap package's
// keyboard handler does not call a KeyboardSink; it forwards raw port-0x60
// reads through trap.KeyboardFn.
type KeyboardSink interface {
	HandleScancode(scancode byte)
}

type discardTerminal struct{}

func (discardTerminal) Write(p []byte) (int, error) { return len(p), nil }
func (discardTerminal) WriteByte(byte)              {}
func (discardTerminal) Clear()                      {}

var (
	// ActiveTerminal is the terminal that kfmt/early.Printf writes to.
	ActiveTerminal Terminal = discardTerminal{}

	// ActiveKeyboard is the sink installed by AttachKeyboard. It defaults
	// to nil, and nothing in this module reads it.
	ActiveKeyboard KeyboardSink
)

// AttachTerminal installs t as the active terminal. Called by a console
// driver once it has mapped its framebuffer and is ready to accept output.
func AttachTerminal(t Terminal) {
	if t == nil {
		t = discardTerminal{}
	}
	ActiveTerminal = t
}

// AttachKeyboard installs sink as the active keyboard sink.
func AttachKeyboard(sink KeyboardSink) {
	ActiveKeyboard = sink
}
