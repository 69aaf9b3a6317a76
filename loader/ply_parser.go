package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Common errors returned by the PLY parser
var (
	errInvalidPLYMagic    = errors.New("invalid PLY magic: file must start with \"ply\"")
	errMissingPLYFormat   = errors.New("PLY header missing format line")
	errInvalidPLYFormat   = errors.New("invalid PLY format: must be ascii, binary_little_endian or binary_big_endian")
	errInvalidPLYVersion  = errors.New("invalid PLY version: must be 1.0")
	errUnterminatedHeader = errors.New("PLY header missing end_header")
	errPropertyBeforeEl   = errors.New("PLY property declared before any element")
	errUnknownScalarType  = errors.New("unknown PLY scalar type")
	errTruncatedBody      = errors.New("PLY body truncated")
	errListCountProperty  = errors.New("PLY list count must be an integer type")
	errNegativeListLength = errors.New("PLY list length is negative")
)

// plyEncoding identifies the body encoding declared in the header.
type plyEncoding int

const (
	plyASCII plyEncoding = iota
	plyBinaryLittleEndian
	plyBinaryBigEndian
)

// plyScalarType identifies one of the eight PLY scalar types.
type plyScalarType int

const (
	plyInt8 plyScalarType = iota
	plyUint8
	plyInt16
	plyUint16
	plyInt32
	plyUint32
	plyFloat32
	plyFloat64
)

// size returns the encoded width of the scalar type in bytes.
func (t plyScalarType) size() int {
	switch t {
	case plyInt8, plyUint8:
		return 1
	case plyInt16, plyUint16:
		return 2
	case plyInt32, plyUint32, plyFloat32:
		return 4
	default:
		return 8
	}
}

// integer reports whether the scalar type is an integer type. List counts
// must be integers.
func (t plyScalarType) integer() bool {
	return t != plyFloat32 && t != plyFloat64
}

// scalarTypeFromName resolves a header type name. Both the modern names
// (uchar, float) and the sized aliases (uint8, float32) are accepted.
func scalarTypeFromName(name string) (plyScalarType, error) {
	switch name {
	case "char", "int8":
		return plyInt8, nil
	case "uchar", "uint8":
		return plyUint8, nil
	case "short", "int16":
		return plyInt16, nil
	case "ushort", "uint16":
		return plyUint16, nil
	case "int", "int32":
		return plyInt32, nil
	case "uint", "uint32":
		return plyUint32, nil
	case "float", "float32":
		return plyFloat32, nil
	case "double", "float64":
		return plyFloat64, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownScalarType, name)
	}
}

// plyProperty is one property declaration inside an element.
type plyProperty struct {
	name      string
	list      bool
	countType plyScalarType // list count type, meaningful only when list is true
	valueType plyScalarType
}

// plyValue holds one parsed property value. Scalar properties fill scalar;
// list properties fill list.
type plyValue struct {
	scalar float64
	list   []float64
}

// plyElement is one element declaration with its parsed instances. rows has
// one entry per instance, each holding one plyValue per declared property in
// declaration order.
type plyElement struct {
	name       string
	count      int
	properties []plyProperty
	rows       [][]plyValue
}

// propertyIndex returns the position of the named property, or -1 when the
// element does not declare it.
func (e *plyElement) propertyIndex(name string) int {
	for i, p := range e.properties {
		if p.name == name {
			return i
		}
	}
	return -1
}

// plyParserImpl is the implementation of the plyParser interface.
type plyParserImpl struct {
	encoding plyEncoding
	elements []*plyElement
}

// plyParser defines the interface for loading and parsing PLY files. It
// handles header parsing and the ASCII and both binary body encodings.
// This is internal to the loader package.
type plyParser interface {
	// Parse loads and parses a PLY file from the given path.
	// The body encoding is taken from the header's format line.
	//
	// Parameters:
	//   - path: path to the PLY file
	//
	// Returns:
	//   - error: error if parsing fails
	Parse(path string) error

	// ParseReader parses a PLY document from a reader.
	//
	// Parameters:
	//   - r: reader containing PLY data, header included
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader) error

	// Element returns the parsed element with the given name.
	// Returns nil if Parse has not been called or the element is absent.
	//
	// Parameters:
	//   - name: the element name, e.g. "vertex" or "face"
	//
	// Returns:
	//   - *plyElement: the element or nil
	Element(name string) *plyElement
}

var _ plyParser = &plyParserImpl{}

// newPLYParser creates a new PLY parser.
//
// Returns:
//   - plyParser: the parser
func newPLYParser() plyParser {
	return &plyParserImpl{}
}

func (p *plyParserImpl) Parse(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.ParseReader(f)
}

func (p *plyParserImpl) ParseReader(r io.Reader) error {
	br := bufio.NewReader(r)
	if err := p.parseHeader(br); err != nil {
		return err
	}

	for _, element := range p.elements {
		element.rows = make([][]plyValue, 0, element.count)
		for i := 0; i < element.count; i++ {
			var row []plyValue
			var err error
			if p.encoding == plyASCII {
				row, err = p.readASCIIRow(br, element)
			} else {
				row, err = p.readBinaryRow(br, element)
			}
			if err != nil {
				return fmt.Errorf("element %q instance %d: %w", element.name, i, err)
			}
			element.rows = append(element.rows, row)
		}
	}
	return nil
}

func (p *plyParserImpl) Element(name string) *plyElement {
	for _, element := range p.elements {
		if element.name == name {
			return element
		}
	}
	return nil
}

// parseHeader consumes the header lines up to and including end_header,
// populating the encoding and the element declarations.
func (p *plyParserImpl) parseHeader(br *bufio.Reader) error {
	magic, err := readHeaderLine(br)
	if err != nil {
		return err
	}
	if magic != "ply" {
		return errInvalidPLYMagic
	}

	formatSeen := false
	for {
		line, err := readHeaderLine(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errUnterminatedHeader
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment", "obj_info":
			// Free-form metadata, skipped.
		case "format":
			if len(fields) != 3 {
				return errInvalidPLYFormat
			}
			switch fields[1] {
			case "ascii":
				p.encoding = plyASCII
			case "binary_little_endian":
				p.encoding = plyBinaryLittleEndian
			case "binary_big_endian":
				p.encoding = plyBinaryBigEndian
			default:
				return fmt.Errorf("%w: %q", errInvalidPLYFormat, fields[1])
			}
			if fields[2] != "1.0" {
				return fmt.Errorf("%w: got %q", errInvalidPLYVersion, fields[2])
			}
			formatSeen = true
		case "element":
			if len(fields) != 3 {
				return fmt.Errorf("malformed element declaration: %q", line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return fmt.Errorf("malformed element count: %q", line)
			}
			p.elements = append(p.elements, &plyElement{name: fields[1], count: count})
		case "property":
			if len(p.elements) == 0 {
				return errPropertyBeforeEl
			}
			property, err := parseProperty(fields)
			if err != nil {
				return err
			}
			element := p.elements[len(p.elements)-1]
			element.properties = append(element.properties, property)
		case "end_header":
			if !formatSeen {
				return errMissingPLYFormat
			}
			return nil
		default:
			return fmt.Errorf("unknown header keyword: %q", fields[0])
		}
	}
}

// parseProperty parses a single property declaration, scalar or list form.
func parseProperty(fields []string) (plyProperty, error) {
	if len(fields) >= 2 && fields[1] == "list" {
		if len(fields) != 5 {
			return plyProperty{}, fmt.Errorf("malformed list property: %q", strings.Join(fields, " "))
		}
		countType, err := scalarTypeFromName(fields[2])
		if err != nil {
			return plyProperty{}, err
		}
		if !countType.integer() {
			return plyProperty{}, fmt.Errorf("%w: %q", errListCountProperty, fields[2])
		}
		valueType, err := scalarTypeFromName(fields[3])
		if err != nil {
			return plyProperty{}, err
		}
		return plyProperty{name: fields[4], list: true, countType: countType, valueType: valueType}, nil
	}
	if len(fields) != 3 {
		return plyProperty{}, fmt.Errorf("malformed property: %q", strings.Join(fields, " "))
	}
	valueType, err := scalarTypeFromName(fields[1])
	if err != nil {
		return plyProperty{}, err
	}
	return plyProperty{name: fields[2], valueType: valueType}, nil
}

// readHeaderLine reads one header line, tolerating CRLF line endings.
func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readASCIIRow reads one element instance from whitespace separated tokens.
// An instance may span lines, matching established PLY readers.
func (p *plyParserImpl) readASCIIRow(br *bufio.Reader, element *plyElement) ([]plyValue, error) {
	row := make([]plyValue, len(element.properties))
	for i, property := range element.properties {
		if !property.list {
			v, err := readASCIIScalar(br)
			if err != nil {
				return nil, err
			}
			row[i] = plyValue{scalar: v}
			continue
		}

		count, err := readASCIIScalar(br)
		if err != nil {
			return nil, err
		}
		length := int(count)
		if length < 0 {
			return nil, errNegativeListLength
		}
		list := make([]float64, length)
		for j := range list {
			if list[j], err = readASCIIScalar(br); err != nil {
				return nil, err
			}
		}
		row[i] = plyValue{list: list}
	}
	return row, nil
}

// readASCIIScalar reads the next whitespace delimited token as a float.
func readASCIIScalar(br *bufio.Reader) (float64, error) {
	var token strings.Builder
	for {
		c, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && token.Len() > 0 {
				break
			}
			if errors.Is(err, io.EOF) {
				return 0, errTruncatedBody
			}
			return 0, err
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			if token.Len() == 0 {
				continue
			}
			break
		}
		token.WriteByte(c)
	}

	v, err := strconv.ParseFloat(token.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric token %q: %w", token.String(), err)
	}
	return v, nil
}

// readBinaryRow reads one element instance in the declared byte order.
func (p *plyParserImpl) readBinaryRow(br *bufio.Reader, element *plyElement) ([]plyValue, error) {
	var order binary.ByteOrder = binary.LittleEndian
	if p.encoding == plyBinaryBigEndian {
		order = binary.BigEndian
	}

	row := make([]plyValue, len(element.properties))
	for i, property := range element.properties {
		if !property.list {
			v, err := readBinaryScalar(br, order, property.valueType)
			if err != nil {
				return nil, err
			}
			row[i] = plyValue{scalar: v}
			continue
		}

		count, err := readBinaryScalar(br, order, property.countType)
		if err != nil {
			return nil, err
		}
		length := int(count)
		if length < 0 {
			return nil, errNegativeListLength
		}
		list := make([]float64, length)
		for j := range list {
			if list[j], err = readBinaryScalar(br, order, property.valueType); err != nil {
				return nil, err
			}
		}
		row[i] = plyValue{list: list}
	}
	return row, nil
}

// readBinaryScalar reads one scalar of the given type and widens it to
// float64. Float64 covers every PLY integer type without loss except the
// upper range of uint64, which PLY does not have.
func readBinaryScalar(br *bufio.Reader, order binary.ByteOrder, t plyScalarType) (float64, error) {
	buf := make([]byte, t.size())
	if _, err := io.ReadFull(br, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, errTruncatedBody
		}
		return 0, err
	}

	switch t {
	case plyInt8:
		return float64(int8(buf[0])), nil
	case plyUint8:
		return float64(buf[0]), nil
	case plyInt16:
		return float64(int16(order.Uint16(buf))), nil
	case plyUint16:
		return float64(order.Uint16(buf)), nil
	case plyInt32:
		return float64(int32(order.Uint32(buf))), nil
	case plyUint32:
		return float64(order.Uint32(buf)), nil
	case plyFloat32:
		return float64(math.Float32frombits(order.Uint32(buf))), nil
	default:
		return math.Float64frombits(order.Uint64(buf)), nil
	}
}
