package dex

import "encoding/binary"

// typeListAt decodes a type_list (used for proto parameter lists and
// interface lists): a u32 size followed by that many u16 type indices,
// resolved to descriptors.
func (c *Container) typeListAt(off uint32) []string {
	if off == 0 {
		return nil
	}
	if off+4 > uint32(len(c.data)) {
		return nil
	}
	size := binary.LittleEndian.Uint32(c.data[off : off+4])
	out := make([]string, 0, size)
	base := off + 4
	for i := uint32(0); i < size; i++ {
		pos := base + i*2
		if pos+2 > uint32(len(c.data)) {
			break
		}
		typeIdx := binary.LittleEndian.Uint16(c.data[pos : pos+2])
		out = append(out, c.typeString(uint32(typeIdx)))
	}
	return out
}

// parseMethods walks every class_data_item in the container, attaching
// direct and virtual methods (in encounter order) to c.methods, each with
// its declared signature and, if present, its parsed code_item.
func (c *Container) parseMethods() error {
	for ci := range c.classDefs {
		cd := &c.classDefs[ci]
		className := c.typeString(cd.classIdx)
		if cd.classDataOff == 0 {
			continue
		}
		r := newULEB128Reader(c.data, int(cd.classDataOff))
		staticFieldsSize := r.next()
		instanceFieldsSize := r.next()
		directMethodsSize := r.next()
		virtualMethodsSize := r.next()

		var fieldIdx uint32
		var staticFields []StaticFieldInit
		for i := uint32(0); i < staticFieldsSize; i++ {
			fieldIdx += r.next() // field_idx_diff
			r.next()             // access_flags
			if int(fieldIdx) < len(c.fieldIDs) {
				fid := c.fieldIDs[fieldIdx]
				staticFields = append(staticFields, StaticFieldInit{
					Name:     c.string(fid.nameIdx),
					TypeDesc: c.typeString(uint32(fid.typeIdx)),
				})
			}
		}
		if len(staticFields) > 0 {
			if c.staticFieldsByClass == nil {
				c.staticFieldsByClass = make(map[string][]StaticFieldInit)
			}
			c.staticFieldsByClass[className] = staticFields
		}
		for i := uint32(0); i < instanceFieldsSize; i++ {
			r.next()
			r.next()
		}

		var methodIdx uint32
		for i := uint32(0); i < directMethodsSize; i++ {
			methodIdx += r.next()
			access := r.next()
			codeOff := r.next()
			c.addMethod(className, methodIdx, access, codeOff)
		}
		methodIdx = 0
		for i := uint32(0); i < virtualMethodsSize; i++ {
			methodIdx += r.next()
			access := r.next()
			codeOff := r.next()
			c.addMethod(className, methodIdx, access, codeOff)
		}
	}
	return nil
}

func (c *Container) addMethod(className string, methodIdx, accessFlags, codeOff uint32) {
	if methodIdx >= uint32(len(c.methodIDs)) {
		return
	}
	mid := c.methodIDs[methodIdx]
	proto := protoIDItem{}
	if int(mid.protoIdx) < len(c.protoIDs) {
		proto = c.protoIDs[mid.protoIdx]
	}
	m := &Method{
		LocalIndex:  len(c.methods),
		Class:       className,
		Name:        c.string(mid.nameIdx),
		ParamDescs:  c.typeListAt(proto.parametersOff),
		ReturnDesc:  c.typeString(proto.returnTypeID),
		AccessFlags: accessFlags,
	}
	if codeOff != 0 {
		c.parseCodeItem(m, codeOff)
	}
	c.methods = append(c.methods, m)
}

func (c *Container) parseCodeItem(m *Method, off uint32) {
	if off+16 > uint32(len(c.data)) {
		return
	}
	registersSize := binary.LittleEndian.Uint16(c.data[off : off+2])
	insSize := binary.LittleEndian.Uint16(c.data[off+2 : off+4])
	insnsSize := binary.LittleEndian.Uint32(c.data[off+12 : off+16])

	insnsOff := off + 16
	insnsBytes := insnsSize * 2
	if insnsOff+insnsBytes > uint32(len(c.data)) {
		insnsBytes = uint32(len(c.data)) - insnsOff
	}

	m.hasCode = true
	m.codeOff = off
	m.registersSize = int(registersSize)
	m.insSize = int(insSize)
	m.bytecode = c.data[insnsOff : insnsOff+insnsBytes]
}
