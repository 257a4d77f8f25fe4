// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elfsym locates a named symbol in a 64-bit ELF object by walking
// the raw section and symbol tables directly, rather than going through
// the standard library's debug/elf: gwatch needs only st_value, st_size
// and st_name, and the hand-rolled reader keeps the resolver's contract
// explicit about exactly which bytes it touches.
package elfsym

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/gwatch/gwatch/internal/gwerr"
)

const (
	ehdrSize = 64
	shdrSize = 64
	symSize  = 24

	shtSymtab = 2 // SHT_SYMTAB

	// ELF e_type values relevant to the PIE/non-PIE load-base decision.
	ETExec = 2
	ETDyn  = 3

	elfMagic = "\x7fELF"
)

// elf64Ehdr mirrors Elf64_Ehdr field by field. This package reads only
// e_ident, e_type, e_shoff, e_shentsize and e_shnum from it.
type elf64Ehdr struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// elf64Shdr mirrors Elf64_Shdr.
type elf64Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// elf64Sym mirrors Elf64_Sym.
type elf64Sym struct {
	Name  uint32
	Info  byte
	Other byte
	Shndx uint16
	Value uint64
	Size  uint64
}

// Symbol is the descriptor component A hands to component D: an
// image-relative virtual address and a width in {4, 8} bytes.
type Symbol struct {
	Offset uint64 // st_value, image-relative
	Size   int    // 4 or 8
	EType  uint16 // ET_EXEC or ET_DYN, for the load-base decision in supervisor
}

// Resolve locates name in path's symbol table and returns its descriptor.
// It returns a *gwerr.Error with Kind SymbolNotFound, MalformedBinary, or
// BadSymbolWidth on failure.
func Resolve(path, name string) (Symbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return Symbol{}, gwerr.Wrap(gwerr.MalformedBinary, "opening binary", err)
	}
	defer f.Close()

	ehdr, err := readEhdr(f)
	if err != nil {
		return Symbol{}, gwerr.Wrap(gwerr.MalformedBinary, "reading ELF header", err)
	}

	shdrs, err := readShdrs(f, ehdr)
	if err != nil {
		return Symbol{}, gwerr.Wrap(gwerr.MalformedBinary, "reading section headers", err)
	}

	symtab := -1
	for i, sh := range shdrs {
		if sh.Type == shtSymtab {
			symtab = i
			break
		}
	}
	if symtab < 0 {
		return Symbol{}, gwerr.New(gwerr.MalformedBinary, "no SYMTAB section")
	}
	strtab := shdrs[symtab].Link
	if int(strtab) >= len(shdrs) {
		return Symbol{}, gwerr.New(gwerr.MalformedBinary, "SYMTAB sh_link out of range")
	}

	syms, err := readSyms(f, shdrs[symtab])
	if err != nil {
		return Symbol{}, gwerr.Wrap(gwerr.MalformedBinary, "reading symbol table", err)
	}

	for _, sym := range syms {
		symName, err := readStr(f, shdrs[strtab], sym.Name)
		if err != nil {
			return Symbol{}, gwerr.Wrap(gwerr.MalformedBinary, "reading symbol name", err)
		}
		if symName != name {
			continue
		}
		if sym.Size != 4 && sym.Size != 8 {
			return Symbol{}, gwerr.New(gwerr.BadSymbolWidth,
				fmt.Sprintf("symbol %q has size %d, want 4 or 8", name, sym.Size))
		}
		return Symbol{Offset: sym.Value, Size: int(sym.Size), EType: ehdr.Type}, nil
	}
	return Symbol{}, gwerr.New(gwerr.SymbolNotFound, fmt.Sprintf("symbol %q not found", name))
}

func readEhdr(f *os.File) (elf64Ehdr, error) {
	var hdr elf64Ehdr
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return hdr, err
	}
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return hdr, err
	}
	if !bytes.Equal(hdr.Ident[:4], []byte(elfMagic)) {
		return hdr, fmt.Errorf("not an ELF file")
	}
	if hdr.Ident[4] != 2 { // ELFCLASS64
		return hdr, fmt.Errorf("not a 64-bit ELF file")
	}
	return hdr, nil
}

func readShdrs(f *os.File, ehdr elf64Ehdr) ([]elf64Shdr, error) {
	if _, err := f.Seek(int64(ehdr.Shoff), io.SeekStart); err != nil {
		return nil, err
	}
	shdrs := make([]elf64Shdr, ehdr.Shnum)
	for i := range shdrs {
		if err := binary.Read(f, binary.LittleEndian, &shdrs[i]); err != nil {
			return nil, err
		}
		// Section headers may be larger than our struct in newer ELF
		// variants; skip any trailing bytes sh_entsize implies.
		if pad := int64(ehdr.Shentsize) - shdrSize; pad > 0 {
			if _, err := f.Seek(pad, io.SeekCurrent); err != nil {
				return nil, err
			}
		}
	}
	return shdrs, nil
}

func readSyms(f *os.File, sh elf64Shdr) ([]elf64Sym, error) {
	if sh.Size%symSize != 0 {
		return nil, fmt.Errorf("SYMTAB sh_size %d not a multiple of %d", sh.Size, symSize)
	}
	n := sh.Size / symSize
	if _, err := f.Seek(int64(sh.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	syms := make([]elf64Sym, n)
	if err := binary.Read(f, binary.LittleEndian, &syms); err != nil {
		return nil, err
	}
	return syms, nil
}

func readStr(f *os.File, strtab elf64Shdr, nameOff uint32) (string, error) {
	if uint64(nameOff) >= strtab.Size {
		return "", fmt.Errorf("st_name %d out of range of strtab size %d", nameOff, strtab.Size)
	}
	if _, err := f.Seek(int64(strtab.Offset+uint64(nameOff)), io.SeekStart); err != nil {
		return "", err
	}
	var buf [256]byte
	n, _ := f.Read(buf[:])
	if i := bytes.IndexByte(buf[:n], 0); i >= 0 {
		return string(buf[:i]), nil
	}
	// Name ran past our read window; fall back to a byte-at-a-time scan.
	var out []byte
	pos := int64(strtab.Offset + uint64(nameOff))
	one := make([]byte, 1)
	for {
		if _, err := f.ReadAt(one, pos); err != nil {
			return "", err
		}
		if one[0] == 0 {
			break
		}
		out = append(out, one[0])
		pos++
	}
	return string(out), nil
}
