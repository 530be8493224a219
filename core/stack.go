package core

import "fmt"

const (
	// WordSize is the size in bytes of one stack word.
	WordSize = 8

	// StackAlign is the alignment in bytes of a fabricated frame's top.
	StackAlign = 16

	// DefaultStackSize is the stack buffer size of every task slot.
	DefaultStackSize = 2 * 1024 * 1024

	// MinStackSize is the smallest stack able to hold an entry frame.
	MinStackSize = 64

	frameWords = 4
)

// Word is one word of a task stack. Fabricated frames hold entry points,
// so a word is something control can land in.
type Word func()

// Stack is the fixed-size stack buffer owned by a task slot.
// It is allocated once and reused across incarnations.
type Stack struct {
	words []Word
}

// NewStack allocates a stack of size bytes.
func NewStack(size int) (*Stack, error) {
	if size < MinStackSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrStackTooSmall, size, MinStackSize)
	}
	return &Stack{words: make([]Word, size/WordSize)}, nil
}

// Size returns the stack size in bytes.
func (s *Stack) Size() int {
	return len(s.words) * WordSize
}

// top returns the word index of the highest 16-byte aligned address.
func (s *Stack) top() int {
	return (len(s.words) * WordSize &^ (StackAlign - 1)) / WordSize
}

// fabricate lays out a fresh entry frame and returns the stack pointer.
//
//	+----------+ high
//	|----------| 16-byte aligned top
//	|  guard   | top-16
//	|  start   | top-24
//	|  body    | top-32 <- sp
//	|          |
//	+----------+ low
//
// The first switch into the frame lands in start, which finds the body in
// the word at sp and falls through to guard when the body is done.
func (s *Stack) fabricate(body, start, guard Word) StackPointer {
	s.wipe()
	top := s.top()
	s.words[top-2] = guard
	s.words[top-3] = start
	s.words[top-4] = body
	return StackPointer{stack: s, off: top - 4}
}

// wipe drops the frame words so a dead incarnation's closures can be
// collected. Nothing below the frame is ever written.
func (s *Stack) wipe() {
	clear(s.words[s.top()-frameWords:])
}

// StackPointer addresses one word of a Stack.
type StackPointer struct {
	stack *Stack
	off   int
}

// IsZero reports whether sp addresses nothing.
func (sp StackPointer) IsZero() bool {
	return sp.stack == nil
}

// Offset returns the byte offset of sp from the bottom of its stack.
func (sp StackPointer) Offset() int {
	return sp.off * WordSize
}

// Load returns the word i slots above sp.
func (sp StackPointer) Load(i int) Word {
	return sp.stack.words[sp.off+i]
}
