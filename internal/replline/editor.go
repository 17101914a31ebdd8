// Package replline implements an interactive line editor shared by feather's
// command-line front ends. It supports raw-mode editing, history-free
// multi-line accumulation (matching the parser's incomplete-command
// protocol), and tab completion sourced from a host-registered "usage"
// command, when one is present.
package replline

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/feather-lang/feather"
	"golang.org/x/term"
)

// CompletionCandidate represents a single completion suggestion.
type CompletionCandidate struct {
	Text string
	Type string
	Help string
	Name string // for arg-placeholder type
}

type keyResult struct {
	key string
	err error
}

// Editor provides an interactive line editor with completion support.
type Editor struct {
	interp   *feather.Interp
	oldState *term.State
	fd       int

	line   []rune
	cursor int

	completions    []CompletionCandidate
	selected       int
	showPopup      bool
	popupLineCount int

	inputBuffer string

	pendingInput []byte

	keyChan       chan keyResult
	readerRunning bool
}

// New creates a new line editor bound to the given interpreter.
func New(interp *feather.Interp) *Editor {
	return &Editor{
		interp: interp,
		fd:     int(os.Stdin.Fd()),
	}
}

func (e *Editor) enterRawMode() error {
	oldState, err := term.MakeRaw(e.fd)
	if err != nil {
		return err
	}
	e.oldState = oldState
	return nil
}

func (e *Editor) exitRawMode() {
	if e.oldState != nil {
		term.Restore(e.fd, e.oldState)
		e.oldState = nil
	}
}

func (e *Editor) getTerminalWidth() int {
	width, _, err := term.GetSize(e.fd)
	if err != nil || width <= 0 {
		return 80
	}
	if width > 80 {
		return width - 1
	}
	return width
}

var debugEnabled = os.Getenv("FEATHER_DEBUG_KEYS") == "1"

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

func (e *Editor) readByte() (byte, error) {
	if len(e.pendingInput) > 0 {
		b := e.pendingInput[0]
		e.pendingInput = e.pendingInput[1:]
		return b, nil
	}

	buf := make([]byte, 32)
	n, err := os.Stdin.Read(buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}

	debugLog("readByte: read %d bytes: %v %q", n, buf[:n], string(buf[:n]))

	if n > 1 {
		e.pendingInput = append(e.pendingInput, buf[1:n]...)
	}
	return buf[0], nil
}

// skipToTerminator skips bytes until a CSI sequence terminator (0x40-0x7E).
func (e *Editor) skipToTerminator() {
	for {
		b, err := e.readByte()
		if err != nil {
			return
		}
		if b >= 0x40 && b <= 0x7E {
			return
		}
	}
}

func (e *Editor) readKey() (key string, err error) {
	ch, err := e.readByte()
	if err != nil {
		return "", err
	}

	if ch == 0x1b {
		ch2, err := e.readByte()
		if err != nil {
			return "escape", nil
		}
		if ch2 == '[' {
			ch3, err := e.readByte()
			if err != nil {
				return "escape", nil
			}
			switch ch3 {
			case 'A':
				return "up", nil
			case 'B':
				return "down", nil
			case 'C':
				return "right", nil
			case 'D':
				return "left", nil
			case 'H':
				return "home", nil
			case 'F':
				return "end", nil
			case 'Z':
				return "shift-tab", nil
			case '3':
				e.readByte() // skip ~
				return "delete", nil
			case 'I':
				return e.readKey() // focus gained
			case 'O':
				return e.readKey() // focus lost
			}
			if ch3 >= '0' && ch3 <= '9' {
				debugLog("readKey: skipping CSI sequence starting with %c", ch3)
				e.skipToTerminator()
				return e.readKey()
			}
			debugLog("readKey: unknown CSI %c, skipping", ch3)
			if ch3 < 0x40 || ch3 > 0x7E {
				e.skipToTerminator()
			}
			return e.readKey()
		}
		debugLog("readKey: unknown escape sequence starting with 0x%02x", ch2)
		return "escape", nil
	}

	switch ch {
	case 0x01: // Ctrl-A
		return "home", nil
	case 0x03: // Ctrl-C
		return "ctrl-c", nil
	case 0x04: // Ctrl-D
		return "ctrl-d", nil
	case 0x05: // Ctrl-E
		return "end", nil
	case 0x09: // Tab
		return "tab", nil
	case 0x0d, 0x0a: // Enter
		return "enter", nil
	case 0x7f, 0x08: // Backspace
		return "backspace", nil
	case 0x15: // Ctrl-U
		return "ctrl-u", nil
	case 0x17: // Ctrl-W
		return "ctrl-w", nil
	}

	return string(ch), nil
}

func (e *Editor) render(prompt string) {
	if e.popupLineCount > 0 {
		for i := 0; i < e.popupLineCount; i++ {
			fmt.Print("\n\033[2K")
		}
		fmt.Printf("\033[%dA\r", e.popupLineCount)
		e.popupLineCount = 0
	}

	fmt.Print("\r\033[K")
	fmt.Print(prompt)
	fmt.Print(string(e.line))

	if e.showPopup && len(e.completions) > 0 {
		e.renderPopup(prompt)
	}

	fmt.Printf("\r\033[%dC", len(prompt)+e.cursor)
}

func typeIndicator(t string) string {
	switch t {
	case "arg-placeholder":
		return "A"
	case "flag":
		return "F"
	case "command":
		return "C"
	case "subcommand":
		return "S"
	case "value":
		return "V"
	default:
		if len(t) > 0 {
			return strings.ToUpper(t[:1])
		}
		return "?"
	}
}

func completionText(c CompletionCandidate) string {
	if c.Type == "arg-placeholder" && c.Name != "" {
		return fmt.Sprintf("<%s>", c.Name)
	}
	return c.Text
}

func (e *Editor) renderPopup(prompt string) {
	maxDisplay := min(len(e.completions), 10)
	termWidth := e.getTerminalWidth()

	maxLen := termWidth - 2
	if maxLen < 40 {
		maxLen = 40
	}

	e.popupLineCount = maxDisplay

	nameWidth := 0
	for i := 0; i < maxDisplay; i++ {
		text := completionText(e.completions[i])
		if len(text) > nameWidth {
			nameWidth = len(text)
		}
	}
	nameWidth += 2
	if nameWidth > 30 {
		nameWidth = 30
	}
	if nameWidth < 8 {
		nameWidth = 8
	}

	for i := 0; i < maxDisplay; i++ {
		c := e.completions[i]

		fmt.Print("\n\r\033[K")

		prefix := "  "
		if i == e.selected {
			prefix = "> "
		}

		text := completionText(c)
		if len(text) > nameWidth-2 {
			text = text[:nameWidth-5] + "..."
		}

		formatStr := fmt.Sprintf("%%s%%-%ds [%%s]", nameWidth)
		line := fmt.Sprintf(formatStr, prefix, text, typeIndicator(c.Type))

		if c.Help != "" {
			remaining := maxLen - len(line) - 1
			if remaining > 10 {
				help := c.Help
				if len(help) > remaining {
					help = help[:remaining-3] + "..."
				}
				line += " " + help
			}
		}

		if len(line) > maxLen {
			line = line[:maxLen]
		}

		if i == e.selected {
			fmt.Printf("\033[7m%s\033[0m", line)
		} else {
			fmt.Printf("\033[2m%s\033[0m", line)
		}
	}

	if maxDisplay > 0 {
		fmt.Printf("\033[%dA\r", maxDisplay)
	}
}

func (e *Editor) clearPopup() {
	if e.popupLineCount == 0 {
		return
	}

	for i := 0; i < e.popupLineCount; i++ {
		fmt.Print("\n\033[2K")
	}
	fmt.Printf("\033[%dA", e.popupLineCount)
	fmt.Print("\r")
	e.popupLineCount = 0
}

// getCompletions asks the interpreter's "usage" command (a host convention,
// not a core built-in) for completions at the cursor. Hosts that never
// register "usage" simply get no completions; the editor degrades silently.
func (e *Editor) getCompletions() {
	script := e.inputBuffer
	if script != "" {
		script += "\n"
	}
	script += string(e.line)
	pos := len(script)

	debugLog("getCompletions: script=%q pos=%d", script, pos)

	result, err := e.interp.Call("usage", "complete", script, pos)
	if err != nil {
		debugLog("getCompletions: error=%v", err)
		e.completions = nil
		return
	}
	debugLog("getCompletions: result=%q", result.String())

	e.completions = nil
	list, err := result.List()
	if err != nil {
		return
	}

	for _, item := range list {
		dict, err := item.Dict()
		if err != nil {
			continue
		}

		c := CompletionCandidate{}
		if v, ok := dict.Items["text"]; ok {
			c.Text = v.String()
		}
		if v, ok := dict.Items["type"]; ok {
			c.Type = v.String()
		}
		if v, ok := dict.Items["help"]; ok {
			c.Help = v.String()
		}
		if v, ok := dict.Items["name"]; ok {
			c.Name = v.String()
		}

		e.completions = append(e.completions, c)
	}
}

func (e *Editor) applyCompletion() {
	if len(e.completions) == 0 || e.selected < 0 || e.selected >= len(e.completions) {
		return
	}

	c := e.completions[e.selected]
	if c.Type == "arg-placeholder" {
		e.showPopup = false
		e.completions = nil
		return
	}

	wordStart := e.cursor
	for wordStart > 0 && !isWordBreak(e.line[wordStart-1]) {
		wordStart--
	}

	newLine := make([]rune, 0, len(e.line)+len(c.Text))
	newLine = append(newLine, e.line[:wordStart]...)
	newLine = append(newLine, []rune(c.Text)...)
	newLine = append(newLine, ' ')
	newLine = append(newLine, e.line[e.cursor:]...)

	e.line = newLine
	e.cursor = wordStart + len(c.Text) + 1

	e.showPopup = false
	e.completions = nil
}

func isWordBreak(r rune) bool {
	return r == ' ' || r == '\t' || r == ';' || r == '\n' || r == '{' || r == '}'
}

func (e *Editor) startKeyReader() {
	if e.readerRunning {
		return
	}
	e.keyChan = make(chan keyResult, 16)
	e.readerRunning = true
	go func() {
		for {
			key, err := e.readKey()
			debugLog("readKey returned: %q err=%v", key, err)
			e.keyChan <- keyResult{key, err}
			if err != nil {
				e.readerRunning = false
				return
			}
		}
	}()
}

// ReadLine reads a complete line of input with completion support.
func (e *Editor) ReadLine(prompt string) (string, error) {
	if err := e.enterRawMode(); err != nil {
		return "", err
	}
	defer e.exitRawMode()

	sigwinch, stopResize := setupResizeSignal()
	defer stopResize()

	e.startKeyReader()

	e.line = nil
	e.cursor = 0
	e.showPopup = false
	e.completions = nil
	e.selected = 0

	e.render(prompt)

	for {
		var key string
		var err error

		select {
		case <-sigwinch:
			e.render(prompt)
			continue
		case kr := <-e.keyChan:
			key = kr.key
			err = kr.err
		}

		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}

		debugLog("processing key: %q", key)

		switch key {
		case "enter":
			if e.showPopup && len(e.completions) > 0 {
				e.applyCompletion()
				e.render(prompt)
			} else {
				e.clearPopup()
				fmt.Print("\r\n")
				return string(e.line), nil
			}

		case "ctrl-c":
			e.clearPopup()
			fmt.Print("\r\n")
			return "", fmt.Errorf("interrupted")

		case "ctrl-d":
			if len(e.line) == 0 {
				e.clearPopup()
				fmt.Print("\r\n")
				return "", io.EOF
			}
			if e.cursor < len(e.line) {
				e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
				e.hidePopup()
			}

		case "tab":
			if e.showPopup && len(e.completions) > 0 {
				e.selected = (e.selected + 1) % len(e.completions)
			} else {
				e.getCompletions()
				e.selected = 0
				e.showPopup = len(e.completions) > 0
			}

		case "shift-tab":
			if e.showPopup && len(e.completions) > 0 {
				e.selected--
				if e.selected < 0 {
					e.selected = len(e.completions) - 1
				}
			} else {
				e.getCompletions()
				if len(e.completions) > 0 {
					e.selected = len(e.completions) - 1
					e.showPopup = true
				}
			}

		case "up":
			if e.showPopup && len(e.completions) > 0 {
				e.selected--
				if e.selected < 0 {
					e.selected = len(e.completions) - 1
				}
			}

		case "down":
			if e.showPopup && len(e.completions) > 0 {
				e.selected = (e.selected + 1) % len(e.completions)
			}

		case "left":
			if e.cursor > 0 {
				e.cursor--
			}
			e.hidePopup()

		case "right":
			if e.cursor < len(e.line) {
				e.cursor++
			}
			e.hidePopup()

		case "home":
			e.cursor = 0
			e.hidePopup()

		case "end":
			e.cursor = len(e.line)
			e.hidePopup()

		case "backspace":
			if e.cursor > 0 {
				e.line = append(e.line[:e.cursor-1], e.line[e.cursor:]...)
				e.cursor--
				e.hidePopup()
			}

		case "delete":
			if e.cursor < len(e.line) {
				e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
				e.hidePopup()
			}

		case "ctrl-u":
			e.line = e.line[e.cursor:]
			e.cursor = 0
			e.hidePopup()

		case "ctrl-w":
			newCursor := e.cursor
			for newCursor > 0 && e.line[newCursor-1] == ' ' {
				newCursor--
			}
			for newCursor > 0 && e.line[newCursor-1] != ' ' {
				newCursor--
			}
			e.line = append(e.line[:newCursor], e.line[e.cursor:]...)
			e.cursor = newCursor
			e.hidePopup()

		case "escape":
			if e.showPopup {
				e.hidePopup()
			}

		default:
			if len(key) == 1 {
				ch := rune(key[0])
				if ch >= 32 && ch < 127 {
					newLine := make([]rune, len(e.line)+1)
					copy(newLine, e.line[:e.cursor])
					newLine[e.cursor] = ch
					copy(newLine[e.cursor+1:], e.line[e.cursor:])
					e.line = newLine
					e.cursor++
					e.hidePopup()
				}
			}
		}

		e.render(prompt)
	}
}

func (e *Editor) hidePopup() {
	if e.showPopup || e.popupLineCount > 0 {
		e.clearPopup()
		e.showPopup = false
		e.completions = nil
	}
}

// SetInputBuffer sets the accumulated multi-line input used as completion
// context (the portion of the command already entered on prior lines).
func (e *Editor) SetInputBuffer(buf string) {
	e.inputBuffer = buf
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Run drives a full read-eval-print loop against interp using a raw-mode
// Editor, printing results the way the TCL shell (tclsh) does: a non-empty
// result is echoed, errors go to stderr, and input accumulates across lines
// until the parser reports a complete command.
func Run(interp *feather.Interp) {
	editor := New(interp)
	var inputBuffer string

	fmt.Println("Feather REPL - Press Tab for completions, Ctrl-D to exit")

	for {
		prompt := "% "
		if inputBuffer != "" {
			prompt = "> "
		}

		editor.SetInputBuffer(inputBuffer)
		line, err := editor.ReadLine(prompt)
		if err != nil {
			if err == io.EOF {
				if inputBuffer != "" {
					fmt.Println()
					fmt.Println("Incomplete input, discarded")
				}
				break
			}
			if strings.Contains(err.Error(), "interrupted") {
				inputBuffer = ""
				continue
			}
			break
		}

		if inputBuffer != "" {
			inputBuffer += "\n" + line
		} else {
			inputBuffer = line
		}

		parseResult := interp.Parse(inputBuffer)
		if parseResult.Status == feather.ParseIncomplete {
			continue
		}

		if parseResult.Status == feather.ParseError {
			fmt.Fprintf(os.Stderr, "error: %s\n", parseResult.Message)
			inputBuffer = ""
			continue
		}

		result, err := interp.Eval(inputBuffer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		} else if result.String() != "" {
			fmt.Println(result.String())
		}
		inputBuffer = ""
	}
}
