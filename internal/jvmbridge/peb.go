package jvmbridge

import (
	"encoding/binary"

	"github.com/palmrunner/palmrunner/internal/armcore"
)

// Process-environment-block field offsets within armcore.PebBase. KTF
// native code reaches into this structure directly by pointer arithmetic,
// so the layout is byte-exact and must not be reordered or padded.
const (
	pebJavaContextDataOffset             = 0x00
	pebCurrentJavaExceptionHandlerOffset = 0x04
)

// JavaExceptionHandlerSize is the record size in bytes: 6 scalar u32
// fields followed by an 11-word context save area, 17 words total.
const JavaExceptionHandlerSize = 17 * 4

// JavaExceptionHandler is one link in the KTF exception handler chain: a
// guest-allocated record a native method pushes before a call that might
// throw, and pops (restoring ptr_current_java_exception_handler from
// ptr_old_handler) on the way out.
type JavaExceptionHandler struct {
	PtrMethod     uint32
	PtrThis       uint32
	PtrOldHandler uint32
	CurrentState  uint32
	Unk3          uint32
	PtrFunctions  uint32
	Context       [11]uint32
}

// WritePeb installs the two PEB pointers KtfJvm::init sets: the address of
// the Java context data block and the address of the current (innermost)
// exception handler, initially null.
func WritePeb(core *armcore.Core, javaContextData, currentHandler uint32) error {
	if err := core.MemWriteU32(armcore.PebBase+pebJavaContextDataOffset, javaContextData); err != nil {
		return err
	}
	return core.MemWriteU32(armcore.PebBase+pebCurrentJavaExceptionHandlerOffset, currentHandler)
}

// CurrentExceptionHandler reads the address of the innermost active
// exception handler, 0 if the chain is empty.
func CurrentExceptionHandler(core *armcore.Core) (uint32, error) {
	return core.MemReadU32(armcore.PebBase + pebCurrentJavaExceptionHandlerOffset)
}

// SetCurrentExceptionHandler updates the PEB's handler-chain head, the
// guest-side equivalent of pushing or popping a frame.
func SetCurrentExceptionHandler(core *armcore.Core, addr uint32) error {
	return core.MemWriteU32(armcore.PebBase+pebCurrentJavaExceptionHandlerOffset, addr)
}

// ReadJavaExceptionHandler decodes the 68-byte record at addr.
func ReadJavaExceptionHandler(core *armcore.Core, addr uint32) (JavaExceptionHandler, error) {
	data, err := core.MemRead(addr, JavaExceptionHandlerSize)
	if err != nil {
		return JavaExceptionHandler{}, err
	}

	var h JavaExceptionHandler
	h.PtrMethod = binary.LittleEndian.Uint32(data[0:4])
	h.PtrThis = binary.LittleEndian.Uint32(data[4:8])
	h.PtrOldHandler = binary.LittleEndian.Uint32(data[8:12])
	h.CurrentState = binary.LittleEndian.Uint32(data[12:16])
	h.Unk3 = binary.LittleEndian.Uint32(data[16:20])
	h.PtrFunctions = binary.LittleEndian.Uint32(data[20:24])
	for i := 0; i < 11; i++ {
		off := 24 + i*4
		h.Context[i] = binary.LittleEndian.Uint32(data[off : off+4])
	}
	return h, nil
}

// WriteJavaExceptionHandler encodes h at addr, 68 bytes, matching
// ReadJavaExceptionHandler's layout exactly.
func WriteJavaExceptionHandler(core *armcore.Core, addr uint32, h JavaExceptionHandler) error {
	data := make([]byte, JavaExceptionHandlerSize)
	binary.LittleEndian.PutUint32(data[0:4], h.PtrMethod)
	binary.LittleEndian.PutUint32(data[4:8], h.PtrThis)
	binary.LittleEndian.PutUint32(data[8:12], h.PtrOldHandler)
	binary.LittleEndian.PutUint32(data[12:16], h.CurrentState)
	binary.LittleEndian.PutUint32(data[16:20], h.Unk3)
	binary.LittleEndian.PutUint32(data[20:24], h.PtrFunctions)
	for i := 0; i < 11; i++ {
		off := 24 + i*4
		binary.LittleEndian.PutUint32(data[off:off+4], h.Context[i])
	}
	return core.MemWrite(addr, data)
}

// PushExceptionHandler allocates a fresh handler record on the guest heap,
// links it behind the current chain head, and makes it current —
// the Go equivalent of a native method's prologue before a call that
// might throw.
func PushExceptionHandler(core *armcore.Core, h JavaExceptionHandler) (uint32, error) {
	addr, err := core.Alloc(JavaExceptionHandlerSize)
	if err != nil {
		return 0, err
	}
	old, err := CurrentExceptionHandler(core)
	if err != nil {
		return 0, err
	}
	h.PtrOldHandler = old
	if err := WriteJavaExceptionHandler(core, addr, h); err != nil {
		return 0, err
	}
	if err := SetCurrentExceptionHandler(core, addr); err != nil {
		return 0, err
	}
	return addr, nil
}

// PopExceptionHandler restores the chain head to the handler's recorded
// predecessor, the epilogue counterpart of PushExceptionHandler.
func PopExceptionHandler(core *armcore.Core, addr uint32) error {
	h, err := ReadJavaExceptionHandler(core, addr)
	if err != nil {
		return err
	}
	return SetCurrentExceptionHandler(core, h.PtrOldHandler)
}
