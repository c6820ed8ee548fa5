// Package dex parses one or more DEX containers out of an Android archive
// and exposes a unified, program-wide view: string/type/proto/field/method
// tables per container, plus a global method index valid across every
// container in the archive.
package dex

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"regexp"
	"sort"

	"github.com/fatalsec/dalivm/internal/value"
)

const headerSize = 0x70

var dexMemberPattern = regexp.MustCompile(`^classes\d*\.dex$`)

// Container is one parsed classes*.dex file.
type Container struct {
	Name string
	data []byte

	stringIDs []uint32 // string_data_off per string index
	typeIDs   []uint32 // string index per type index
	protoIDs  []protoIDItem
	fieldIDs  []fieldIDItem
	methodIDs []methodIDItem
	classDefs []classDefItem

	strings []string // decoded lazily, then cached

	// methods is built by parseMethods: local method index -> *Method.
	methods []*Method
	// classByDescriptor indexes classDefs by type descriptor for bytecode
	// retrieval.
	classByDescriptor map[string]*classDefItem
	// staticFieldsByClass records each class's static fields in
	// declaration order, the order encoded_array initializers line up
	// against positionally.
	staticFieldsByClass map[string][]StaticFieldInit
}

// StaticFieldInit is one static field's declared name and type descriptor.
// Its compile-time constant initializer, if any, is returned separately by
// Program.StaticFieldInitializers.
type StaticFieldInit struct {
	Name     string
	TypeDesc string
}

type protoIDItem struct {
	shortyIdx    uint32
	returnTypeID uint32
	parametersOff uint32
}

type fieldIDItem struct {
	classIdx uint16
	typeIdx  uint16
	nameIdx  uint32
}

type methodIDItem struct {
	classIdx uint16
	protoIdx uint16
	nameIdx  uint32
}

type classDefItem struct {
	classIdx       uint32
	accessFlags    uint32
	superclassIdx  uint32
	interfacesOff  uint32
	sourceFileIdx  uint32
	annotationsOff uint32
	classDataOff   uint32
	staticValuesOff uint32
}

// Method is a single method record: class descriptor, name, declared
// parameter/return descriptors, and the bytecode payload located when the
// container is loaded.
// GlobalIndex is unique across every container in the owning Program.
type Method struct {
	GlobalIndex int
	Container   int
	LocalIndex  int

	Class      string
	Name       string
	ParamDescs []string
	ReturnDesc string
	AccessFlags uint32

	hasCode       bool
	codeOff       uint32
	bytecode      []byte
	registersSize int
	insSize       int // number of incoming-argument registers, receiver included for instance methods
}

// IsStatic reports whether the ACC_STATIC bit is set.
func (m *Method) IsStatic() bool { return m.AccessFlags&0x0008 != 0 }

// Signature renders "(params)ret" the way traces do.
func (m *Method) Signature() string {
	p := ""
	for _, d := range m.ParamDescs {
		p += d
	}
	return "(" + p + ")" + m.ReturnDesc
}

// FullName renders "LClass;->name(params)ret".
func (m *Method) FullName() string {
	return m.Class + "->" + m.Name + m.Signature()
}

// HasBytecode reports whether the method has a code_item (i.e. is not
// abstract or native).
func (m *Method) HasBytecode() bool { return m.hasCode }

// Program is the parsed, unified view of every DEX container in an archive.
type Program struct {
	Containers []*Container
	// methods indexed by global index, in encounter (container, then local)
	// order.
	methods []*Method
	// byClassName groups methods by class descriptor for find_method.
	byClassName map[string][]*Method
	// classContainer maps a class descriptor to the index of the
	// container that defines it, for static-initializer lookup.
	classContainer map[string]int
}

// Load reads every classes*.dex member from a zip archive (APK) byte buffer,
// sorted lexicographically by member name, and returns the unified Program.
func Load(apk []byte) (*Program, error) {
	zr, err := zip.NewReader(bytes.NewReader(apk), int64(len(apk)))
	if err != nil {
		return nil, fmt.Errorf("dex: open archive: %w", err)
	}

	var names []string
	byName := make(map[string]*zip.File)
	for _, f := range zr.File {
		if dexMemberPattern.MatchString(f.Name) {
			names = append(names, f.Name)
			byName[f.Name] = f
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("dex: no classes*.dex member found in archive")
	}
	sort.Strings(names)

	p := &Program{byClassName: make(map[string][]*Method)}
	for _, name := range names {
		rc, err := byName[name].Open()
		if err != nil {
			return nil, fmt.Errorf("dex: open %s: %w", name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("dex: read %s: %w", name, err)
		}
		c, err := parseContainer(name, raw)
		if err != nil {
			return nil, fmt.Errorf("dex: parse %s: %w", name, err)
		}
		p.Containers = append(p.Containers, c)
	}
	p.assignGlobalIndices()
	return p, nil
}

// LoadDex parses a single raw classes.dex buffer, for tests and for
// single-container callers that have already located the member bytes.
func LoadDex(name string, raw []byte) (*Program, error) {
	c, err := parseContainer(name, raw)
	if err != nil {
		return nil, err
	}
	p := &Program{Containers: []*Container{c}, byClassName: make(map[string][]*Method)}
	p.assignGlobalIndices()
	return p, nil
}

func parseContainer(name string, raw []byte) (*Container, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("truncated header")
	}
	c := &Container{Name: name, data: raw}

	stringIDsSize := binary.LittleEndian.Uint32(raw[56:60])
	stringIDsOff := binary.LittleEndian.Uint32(raw[60:64])
	typeIDsSize := binary.LittleEndian.Uint32(raw[64:68])
	typeIDsOff := binary.LittleEndian.Uint32(raw[68:72])
	protoIDsSize := binary.LittleEndian.Uint32(raw[72:76])
	protoIDsOff := binary.LittleEndian.Uint32(raw[76:80])
	fieldIDsSize := binary.LittleEndian.Uint32(raw[80:84])
	fieldIDsOff := binary.LittleEndian.Uint32(raw[84:88])
	methodIDsSize := binary.LittleEndian.Uint32(raw[88:92])
	methodIDsOff := binary.LittleEndian.Uint32(raw[92:96])
	classDefsSize := binary.LittleEndian.Uint32(raw[96:100])
	classDefsOff := binary.LittleEndian.Uint32(raw[100:104])

	c.stringIDs = make([]uint32, stringIDsSize)
	for i := uint32(0); i < stringIDsSize; i++ {
		off := stringIDsOff + i*4
		c.stringIDs[i] = binary.LittleEndian.Uint32(raw[off : off+4])
	}

	c.typeIDs = make([]uint32, typeIDsSize)
	for i := uint32(0); i < typeIDsSize; i++ {
		off := typeIDsOff + i*4
		c.typeIDs[i] = binary.LittleEndian.Uint32(raw[off : off+4])
	}

	c.protoIDs = make([]protoIDItem, protoIDsSize)
	for i := uint32(0); i < protoIDsSize; i++ {
		off := protoIDsOff + i*12
		c.protoIDs[i] = protoIDItem{
			shortyIdx:     binary.LittleEndian.Uint32(raw[off : off+4]),
			returnTypeID:  binary.LittleEndian.Uint32(raw[off+4 : off+8]),
			parametersOff: binary.LittleEndian.Uint32(raw[off+8 : off+12]),
		}
	}

	c.fieldIDs = make([]fieldIDItem, fieldIDsSize)
	for i := uint32(0); i < fieldIDsSize; i++ {
		off := fieldIDsOff + i*8
		c.fieldIDs[i] = fieldIDItem{
			classIdx: binary.LittleEndian.Uint16(raw[off : off+2]),
			typeIdx:  binary.LittleEndian.Uint16(raw[off+2 : off+4]),
			nameIdx:  binary.LittleEndian.Uint32(raw[off+4 : off+8]),
		}
	}

	c.methodIDs = make([]methodIDItem, methodIDsSize)
	for i := uint32(0); i < methodIDsSize; i++ {
		off := methodIDsOff + i*8
		c.methodIDs[i] = methodIDItem{
			classIdx: binary.LittleEndian.Uint16(raw[off : off+2]),
			protoIdx: binary.LittleEndian.Uint16(raw[off+2 : off+4]),
			nameIdx:  binary.LittleEndian.Uint32(raw[off+4 : off+8]),
		}
	}

	c.classDefs = make([]classDefItem, classDefsSize)
	c.classByDescriptor = make(map[string]*classDefItem, classDefsSize)
	for i := uint32(0); i < classDefsSize; i++ {
		off := classDefsOff + i*32
		cd := classDefItem{
			classIdx:        binary.LittleEndian.Uint32(raw[off : off+4]),
			accessFlags:     binary.LittleEndian.Uint32(raw[off+4 : off+8]),
			superclassIdx:   binary.LittleEndian.Uint32(raw[off+8 : off+12]),
			interfacesOff:   binary.LittleEndian.Uint32(raw[off+12 : off+16]),
			sourceFileIdx:   binary.LittleEndian.Uint32(raw[off+16 : off+20]),
			annotationsOff:  binary.LittleEndian.Uint32(raw[off+20 : off+24]),
			classDataOff:    binary.LittleEndian.Uint32(raw[off+24 : off+28]),
			staticValuesOff: binary.LittleEndian.Uint32(raw[off+28 : off+32]),
		}
		c.classDefs[i] = cd
		c.classByDescriptor[c.typeString(cd.classIdx)] = &c.classDefs[i]
	}

	if err := c.parseMethods(); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Program) assignGlobalIndices() {
	if p.classContainer == nil {
		p.classContainer = make(map[string]int)
	}
	for ci, c := range p.Containers {
		for class := range c.classByDescriptor {
			p.classContainer[class] = ci
		}
		for _, m := range c.methods {
			m.Container = ci
			m.GlobalIndex = len(p.methods)
			p.methods = append(p.methods, m)
			p.byClassName[m.Class] = append(p.byClassName[m.Class], m)
		}
	}
}

// StaticFieldInitializers returns class's static fields in declaration
// order together with their compile-time constant initializer values. The
// values line up with the fields by position and stop where the class's
// encoded_array ends, so fields past that point (or all fields, when the
// class has no encoded_array) have no entry.
func (p *Program) StaticFieldInitializers(class string) ([]StaticFieldInit, []value.Value) {
	ci, ok := p.classContainer[class]
	if !ok {
		return nil, nil
	}
	c := p.Containers[ci]
	fields := c.staticFieldsByClass[class]
	cd := c.classByDescriptor[class]
	var values []value.Value
	if cd != nil && cd.staticValuesOff != 0 {
		values = c.decodeEncodedArray(cd.staticValuesOff)
	}
	return fields, values
}

// HasClass reports whether class is defined by any container in the
// program.
func (p *Program) HasClass(class string) bool {
	_, ok := p.classContainer[class]
	return ok
}

// Superclass returns class's declared superclass descriptor, or "" if class
// is not defined in this program (an SDK/framework class, most commonly).
func (p *Program) Superclass(class string) string {
	ci, ok := p.classContainer[class]
	if !ok {
		return ""
	}
	c := p.Containers[ci]
	cd := c.classByDescriptor[class]
	if cd == nil || cd.superclassIdx == noIndex {
		return ""
	}
	return c.typeString(cd.superclassIdx)
}

// noIndex is DEX's NO_INDEX sentinel (0xffffffff), marking an absent
// superclass (only java.lang.Object has none).
const noIndex = 0xffffffff

// MethodByGlobalIndex resolves a global method index to its Method, or nil
// if out of range. Every resolved global index round-trips to exactly one
// (container, local) pair.
func (p *Program) MethodByGlobalIndex(idx int) *Method {
	if idx < 0 || idx >= len(p.methods) {
		return nil
	}
	return p.methods[idx]
}

// MethodsOf returns every parsed method of the given class descriptor, in
// encounter order.
func (p *Program) MethodsOf(class string) []*Method {
	return p.byClassName[class]
}

// AllMethods returns every method with attached bytecode across every
// container, in encounter order.
func (p *Program) AllMethods() []*Method {
	out := make([]*Method, 0, len(p.methods))
	for _, m := range p.methods {
		if m.HasBytecode() {
			out = append(out, m)
		}
	}
	return out
}

// string resolves a string-table index to its decoded value, decoding and
// caching on first use.
func (c *Container) string(idx uint32) string {
	if idx >= uint32(len(c.stringIDs)) {
		return fmt.Sprintf("<string_%d>", idx)
	}
	if c.strings == nil {
		c.strings = make([]string, len(c.stringIDs))
	}
	if c.strings[idx] != "" {
		return c.strings[idx]
	}
	off := c.stringIDs[idx]
	s := c.decodeStringAt(off)
	c.strings[idx] = s
	return s
}

func (c *Container) typeString(typeIdx uint32) string {
	if typeIdx >= uint32(len(c.typeIDs)) {
		return fmt.Sprintf("<type_%d>", typeIdx)
	}
	return c.string(c.typeIDs[typeIdx])
}

// ResolveString exposes string-pool resolution for constant-pool-index
// opcode operands (const-string and friends).
func (c *Container) ResolveString(idx uint32) string { return c.string(idx) }

// ResolveType exposes type-pool resolution for const-class/check-cast/
// instance-of/new-instance/new-array operands.
func (c *Container) ResolveType(idx uint32) string { return c.typeString(idx) }

// ResolveField resolves a field_id index to its declaring class, name, and
// type descriptor, for iget/iput/sget/sput operands.
func (c *Container) ResolveField(idx uint32) (class, name, typeDesc string) {
	if idx >= uint32(len(c.fieldIDs)) {
		return "", "", ""
	}
	f := c.fieldIDs[idx]
	return c.typeString(uint32(f.classIdx)), c.string(f.nameIdx), c.typeString(uint32(f.typeIdx))
}

// ResolveMethod resolves a method_id index to its declaring class, name, and
// declared signature, for invoke-family operands.
func (c *Container) ResolveMethod(idx uint32) (class, name string, paramDescs []string, returnDesc string) {
	if idx >= uint32(len(c.methodIDs)) {
		return "", "", nil, ""
	}
	m := c.methodIDs[idx]
	proto := protoIDItem{}
	if int(m.protoIdx) < len(c.protoIDs) {
		proto = c.protoIDs[m.protoIdx]
	}
	return c.typeString(uint32(m.classIdx)), c.string(m.nameIdx), c.typeListAt(proto.parametersOff), c.typeString(proto.returnTypeID)
}

// Bytecode returns the instruction bytes and declared register count of a
// method's code item, both read when the container was loaded. Methods with no code_item
// (abstract, native, or unresolved) return (nil, 0, false).
func (m *Method) Bytecode() (code []byte, registersSize int, ok bool) {
	if !m.hasCode {
		return nil, 0, false
	}
	return m.bytecode, m.registersSize, true
}

// InsSize returns the number of incoming-argument register slots (the
// receiver counts as one for instance methods), used to place call
// arguments in the tail registers.
func (m *Method) InsSize() int { return m.insSize }
