package libc

import (
	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/stubs"
)

// This file is illustrative, not exhaustive: it covers enough of libc's
// string/mem surface to run typical guest string handling, not every
// n-suffixed variant a real libc exports.
func init() {
	stubs.RegisterFunc("libc", "strlen", stubStrlen)
	stubs.RegisterFunc("libc", "memcpy", stubMemcpy)
	stubs.RegisterFunc("libc", "memset", stubMemset)
	stubs.RegisterFunc("libc", "memcmp", stubMemcmp)
	stubs.RegisterFunc("libc", "strcmp", stubStrcmp)
	stubs.RegisterFunc("libc", "strcpy", stubStrcpy)
	stubs.RegisterFunc("libc", "strcat", stubStrcat)
	stubs.RegisterFunc("libc", "strchr", stubStrchr)
	stubs.RegisterFunc("libc", "strstr", stubStrstr)
	stubs.RegisterFunc("libc", "strdup", stubStrdup)
}

const maxStubString = 4096

func stubStrlen(core *armcore.Core) (uint32, error) {
	addr, err := core.R(0)
	if err != nil {
		return 0, err
	}
	str, err := core.MemReadString(addr, maxStubString)
	if err != nil {
		return 0, err
	}

	stubs.DefaultRegistry.Log("libc", "strlen", "len="+itoa(len(str)))
	return uint32(len(str)), nil
}

func stubMemcpy(core *armcore.Core) (uint32, error) {
	dest, err := core.R(0)
	if err != nil {
		return 0, err
	}
	src, err := core.R(1)
	if err != nil {
		return 0, err
	}
	n, err := core.R(2)
	if err != nil {
		return 0, err
	}

	if n > 0 && n < 0x100000 {
		data, err := core.MemRead(src, n)
		if err == nil {
			_ = core.MemWrite(dest, data)
		}
	}

	stubs.DefaultRegistry.Log("libc", "memcpy", formatMemop(dest, src, n))
	return dest, nil
}

func stubMemset(core *armcore.Core) (uint32, error) {
	dest, err := core.R(0)
	if err != nil {
		return 0, err
	}
	cReg, err := core.R(1)
	if err != nil {
		return 0, err
	}
	n, err := core.R(2)
	if err != nil {
		return 0, err
	}

	if n > 0 && n < 0x100000 {
		data := make([]byte, n)
		c := byte(cReg & 0xFF)
		for i := range data {
			data[i] = c
		}
		_ = core.MemWrite(dest, data)
	}

	stubs.DefaultRegistry.Log("libc", "memset", "dest="+stubs.FormatHex(dest))
	return dest, nil
}

func stubMemcmp(core *armcore.Core) (uint32, error) {
	s1Addr, err := core.R(0)
	if err != nil {
		return 0, err
	}
	s2Addr, err := core.R(1)
	if err != nil {
		return 0, err
	}
	n, err := core.R(2)
	if err != nil {
		return 0, err
	}

	if n == 0 || n >= 0x100000 {
		return 0, nil
	}
	s1, _ := core.MemRead(s1Addr, n)
	s2, _ := core.MemRead(s2Addr, n)
	for i := uint32(0); i < n && i < uint32(len(s1)) && i < uint32(len(s2)); i++ {
		switch {
		case s1[i] < s2[i]:
			return 0xffffffff, nil
		case s1[i] > s2[i]:
			return 1, nil
		}
	}
	return 0, nil
}

func stubStrcmp(core *armcore.Core) (uint32, error) {
	a0, _ := core.R(0)
	a1, _ := core.R(1)
	s1, _ := core.MemReadString(a0, 256)
	s2, _ := core.MemReadString(a1, 256)

	switch {
	case s1 < s2:
		return 0xffffffff, nil
	case s1 > s2:
		return 1, nil
	default:
		return 0, nil
	}
}

func stubStrcpy(core *armcore.Core) (uint32, error) {
	dest, _ := core.R(0)
	src, _ := core.R(1)
	str, err := core.MemReadString(src, maxStubString)
	if err != nil {
		return 0, err
	}
	if err := core.MemWriteString(dest, str); err != nil {
		return 0, err
	}
	return dest, nil
}

func stubStrcat(core *armcore.Core) (uint32, error) {
	dest, _ := core.R(0)
	src, _ := core.R(1)

	destStr, _ := core.MemReadString(dest, maxStubString)
	srcStr, _ := core.MemReadString(src, maxStubString)
	if err := core.MemWriteString(dest, destStr+srcStr); err != nil {
		return 0, err
	}
	return dest, nil
}

func stubStrchr(core *armcore.Core) (uint32, error) {
	addr, _ := core.R(0)
	cReg, _ := core.R(1)
	c := byte(cReg & 0xFF)

	str, err := core.MemReadString(addr, maxStubString)
	if err != nil {
		return 0, err
	}
	for i := 0; i < len(str); i++ {
		if str[i] == c {
			return addr + uint32(i), nil
		}
	}
	if c == 0 {
		return addr + uint32(len(str)), nil
	}
	return 0, nil
}

func stubStrstr(core *armcore.Core) (uint32, error) {
	haystackAddr, _ := core.R(0)
	needleAddr, _ := core.R(1)

	haystack, _ := core.MemReadString(haystackAddr, maxStubString)
	needle, _ := core.MemReadString(needleAddr, 256)

	if len(needle) == 0 {
		return haystackAddr, nil
	}
	for i := 0; i <= len(haystack)-len(needle); i++ {
		if haystack[i:i+len(needle)] == needle {
			return haystackAddr + uint32(i), nil
		}
	}
	return 0, nil
}

func stubStrdup(core *armcore.Core) (uint32, error) {
	src, _ := core.R(0)
	str, err := core.MemReadString(src, maxStubString)
	if err != nil {
		return 0, err
	}

	size := alignedSize(uint32(len(str) + 1))
	ptr, err := core.Alloc(size)
	if err != nil {
		return 0, err
	}
	if err := core.MemWriteString(ptr, str); err != nil {
		return 0, err
	}
	return ptr, nil
}

func formatMemop(dest, src, n uint32) string {
	return "dst=" + stubs.FormatHex(dest) + " src=" + stubs.FormatHex(src) + " n=" + stubs.FormatHex(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
