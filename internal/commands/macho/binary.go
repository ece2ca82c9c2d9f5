package macho

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AlecAivazis/survey/v2"
	"github.com/blacktop/go-macho"
	"github.com/blacktop/strongarm/internal/session"
	"github.com/pkg/errors"
)

// SelectSlice asks which slice of a universal binary to analyze and returns
// its index into options.
var SelectSlice = func(options []string) (int, error) {
	choice := 0
	prompt := &survey.Select{
		Message: "Detected a universal MachO file, please select an architecture to analyze:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return 0, err
	}
	return choice, nil
}

// Binary is one loaded Mach-O slice.
type Binary struct {
	path    string
	arch    string
	slices  []string
	options []string

	m   *macho.File
	fat *macho.FatFile

	symOnce sync.Once
	a2s     map[uint64]string
}

var _ session.Binary = (*Binary)(nil)

// Open loads the Mach-O at path and picks a slice with Pick.
func Open(path, arch string) (*Binary, error) {
	b, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := b.Pick(arch); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// Load opens the Mach-O at path and lists its slices. A thin file is ready to
// use; a universal file needs Pick before any other method is called.
func Load(path string) (*Binary, error) {
	path = filepath.Clean(path)
	b := &Binary{path: path}

	fat, err := macho.OpenFat(path)
	if err != nil && err != macho.ErrNotFat {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	if err == macho.ErrNotFat {
		b.m, err = macho.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "%s appears to not be a valid MachO", path)
		}
		b.arch = strings.ToLower(b.m.SubCPU.String(b.m.CPU))
		b.slices = []string{b.arch}
		return b, nil
	}

	b.fat = fat
	for _, farch := range fat.Arches {
		b.options = append(b.options, fmt.Sprintf("%s, %s", farch.CPU, farch.SubCPU.String(farch.CPU)))
		b.slices = append(b.slices, strings.ToLower(farch.SubCPU.String(farch.CPU)))
	}
	return b, nil
}

// Pick selects the slice of a universal binary to analyze. arch is matched
// case-insensitively against the slice names; when arch is empty and there is
// more than one slice SelectSlice is asked. Thin files ignore arch.
func (b *Binary) Pick(arch string) error {
	if b.fat == nil || b.m != nil {
		return nil
	}
	choice, err := b.choose(arch)
	if err != nil {
		return err
	}
	b.m = b.fat.Arches[choice].File
	b.arch = b.slices[choice]
	return nil
}

func (b *Binary) choose(arch string) (int, error) {
	switch {
	case len(arch) > 0:
		return matchSlice(b.slices, arch)
	case len(b.slices) > 1:
		choice, err := SelectSlice(b.options)
		if err != nil {
			return 0, errors.Wrap(err, "failed to select a slice")
		}
		return choice, nil
	}
	return 0, nil
}

func matchSlice(slices []string, arch string) (int, error) {
	want := strings.ToLower(arch)
	// exact names win over substrings so "arm64" does not pick "arm64e"
	for i, name := range slices {
		if name == want {
			return i, nil
		}
	}
	for i, name := range slices {
		if strings.Contains(name, want) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("--arch '%s' not found in: %s", arch, strings.Join(slices, ", "))
}

// Close releases the underlying file.
func (b *Binary) Close() error {
	if b.fat != nil {
		return b.fat.Close()
	}
	if b.m != nil {
		return b.m.Close()
	}
	return nil
}

// File returns the parsed Mach-O.
func (b *Binary) File() *macho.File { return b.m }

func (b *Binary) Path() string { return b.path }

// Arch returns the lowercase CPU subtype name of the loaded slice.
func (b *Binary) Arch() string { return b.arch }

// Slices returns the names of every slice in the file, in file order.
func (b *Binary) Slices() []string { return b.slices }

func (b *Binary) Metadata() session.Metadata {
	hdr := b.m.FileHeader
	md := session.Metadata{
		Path:         b.path,
		Magic:        fmt.Sprint(hdr.Magic),
		CPU:          fmt.Sprint(hdr.CPU),
		SubCPU:       hdr.SubCPU.String(hdr.CPU),
		FileType:     fmt.Sprint(hdr.Type),
		Flags:        fmt.Sprint(hdr.Flags),
		NCommands:    hdr.NCommands,
		SizeCommands: hdr.SizeCommands,
		Encrypted:    b.encrypted(),
		HasObjC:      b.m.HasObjC(),
		HasSwift:     b.m.HasSwift(),
	}
	if uuid := b.m.UUID(); uuid != nil {
		md.UUID = uuid.String()
	}
	if bv := b.m.BuildVersion(); bv != nil {
		md.BuildVersion = bv.String()
	}
	if sv := b.m.SourceVersion(); sv != nil {
		md.SourceVersion = sv.Version.String()
	}
	if id := b.m.DylibID(); id != nil {
		md.DylibID = fmt.Sprintf("%s (%s)", id.Name, id.CurrentVersion)
	}
	return md
}

func (b *Binary) encrypted() bool {
	if infos := b.m.GetLoadsByName("LC_ENCRYPTION_INFO_64"); len(infos) > 0 {
		if info, ok := infos[0].(*macho.EncryptionInfo64); ok {
			return uint32(info.CryptID) != 0
		}
	}
	if infos := b.m.GetLoadsByName("LC_ENCRYPTION_INFO"); len(infos) > 0 {
		if info, ok := infos[0].(*macho.EncryptionInfo); ok {
			return uint32(info.CryptID) != 0
		}
	}
	return false
}

func (b *Binary) Segments() []session.Segment {
	var segs []session.Segment
	for _, seg := range b.m.Segments() {
		segs = append(segs, session.Segment{
			Name:    seg.Name,
			Addr:    seg.Addr,
			Memsz:   seg.Memsz,
			Offset:  seg.Offset,
			Filesz:  seg.Filesz,
			Maxprot: fmt.Sprint(seg.Maxprot),
			Prot:    fmt.Sprint(seg.Prot),
			Nsect:   seg.Nsect,
		})
	}
	return segs
}

func (b *Binary) Sections() []session.Section {
	var sects []session.Section
	for _, sec := range b.m.Sections {
		sects = append(sects, session.Section{
			Segment: sec.Seg,
			Name:    sec.Name,
			Addr:    sec.Addr,
			Size:    sec.Size,
			Offset:  sec.Offset,
			Flags:   fmt.Sprint(sec.Flags),
		})
	}
	return sects
}

func (b *Binary) LoadCommands() []session.LoadCommand {
	var loads []session.LoadCommand
	for idx, l := range b.m.Loads {
		loads = append(loads, session.LoadCommand{
			Index:   idx,
			Command: fmt.Sprint(l.Command()),
			Size:    uint32(len(l.Raw())),
			Detail:  l.String(),
		})
	}
	return loads
}

func (b *Binary) Strings() ([]session.CString, error) {
	return GetStrings(b.m)
}

// GetContentFromVirtualAddress reads size bytes at addr. The range must lie
// inside a single segment; the zero-fill tail of a segment reads as zeros.
func (b *Binary) GetContentFromVirtualAddress(addr, size uint64) ([]byte, error) {
	seg := b.m.FindSegmentForVMAddr(addr)
	if seg == nil {
		return nil, fmt.Errorf("address %#x is not mapped by any segment", addr)
	}
	if addr+size < addr || addr+size > seg.Addr+seg.Memsz {
		return nil, fmt.Errorf("range %#x-%#x extends past the end of %s (%#x)", addr, addr+size, seg.Name, seg.Addr+seg.Memsz)
	}
	data := make([]byte, size)
	rel := addr - seg.Addr
	if rel >= seg.Filesz {
		return data, nil
	}
	n := min(size, seg.Filesz-rel)
	if _, err := b.m.ReadAt(data[:n], int64(seg.Offset+rel)); err != nil {
		return nil, errors.Wrapf(err, "failed to read %d bytes at %#x", n, addr)
	}
	return data, nil
}

// FunctionAt returns the LC_FUNCTION_STARTS function containing addr.
func (b *Binary) FunctionAt(addr uint64) (session.Function, bool) {
	if b.m.FunctionStarts() == nil {
		return session.Function{}, false
	}
	fn, err := b.m.GetFunctionForVMAddr(addr)
	if err != nil {
		return session.Function{}, false
	}
	return session.Function{Start: fn.StartAddr, End: fn.EndAddr}, true
}

// SymbolName returns the name known for addr.
func (b *Binary) SymbolName(addr uint64) (string, bool) {
	if name, ok := b.symbolMap()[addr]; ok {
		return name, true
	}
	syms, err := b.m.FindAddressSymbols(addr)
	if err != nil || len(syms) == 0 {
		return "", false
	}
	return syms[0].Name, true
}
