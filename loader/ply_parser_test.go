package loader

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPLYParserHeaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"bad magic", "plx\nformat ascii 1.0\nend_header\n", errInvalidPLYMagic},
		{"missing format", "ply\nelement vertex 0\nend_header\n", errMissingPLYFormat},
		{"bad encoding", "ply\nformat binary 1.0\nend_header\n", errInvalidPLYFormat},
		{"bad version", "ply\nformat ascii 2.0\nend_header\n", errInvalidPLYVersion},
		{"unterminated header", "ply\nformat ascii 1.0\n", errUnterminatedHeader},
		{"property before element", "ply\nformat ascii 1.0\nproperty float x\nend_header\n", errPropertyBeforeEl},
		{"unknown scalar type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quaternion x\nend_header\n", errUnknownScalarType},
		{"float list count", "ply\nformat ascii 1.0\nelement face 1\nproperty list float int vertex_indices\nend_header\n", errListCountProperty},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := newPLYParser().ParseReader(strings.NewReader(test.input))
			assert.ErrorIs(t, err, test.want)
		})
	}
}

func TestPLYParserTruncatedBody(t *testing.T) {
	input := "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nend_header\n1.0\n"
	err := newPLYParser().ParseReader(strings.NewReader(input))
	assert.ErrorIs(t, err, errTruncatedBody)
}

func TestPLYParserASCII(t *testing.T) {
	input := strings.Join([]string{
		"ply",
		"format ascii 1.0",
		"comment generated for a unit test",
		"element vertex 2",
		"property float x",
		"property float y",
		"element face 1",
		"property list uchar int vertex_indices",
		"end_header",
		"0.5 -1.5",
		"2 3",
		"2 0 1",
		"",
	}, "\n")

	p := newPLYParser()
	require.NoError(t, p.ParseReader(strings.NewReader(input)))

	vertices := p.Element("vertex")
	require.NotNil(t, vertices)
	require.Len(t, vertices.rows, 2)
	assert.Equal(t, 0.5, vertices.rows[0][0].scalar)
	assert.Equal(t, -1.5, vertices.rows[0][1].scalar)
	assert.Equal(t, 2.0, vertices.rows[1][0].scalar)

	faces := p.Element("face")
	require.NotNil(t, faces)
	require.Len(t, faces.rows, 1)
	assert.Equal(t, []float64{0, 1}, faces.rows[0][0].list)

	assert.Nil(t, p.Element("edge"))
}

func TestPLYParserBinaryBigEndian(t *testing.T) {
	var body bytes.Buffer
	for _, v := range []float32{1, 2, 3} {
		require.NoError(t, binary.Write(&body, binary.BigEndian, v))
	}
	require.NoError(t, body.WriteByte(3))
	for _, v := range []int32{0, 1, 2} {
		require.NoError(t, binary.Write(&body, binary.BigEndian, v))
	}

	header := strings.Join([]string{
		"ply",
		"format binary_big_endian 1.0",
		"element vertex 1",
		"property float x",
		"property float y",
		"property float z",
		"element face 1",
		"property list uchar int vertex_indices",
		"end_header",
		"",
	}, "\n")

	p := newPLYParser()
	require.NoError(t, p.ParseReader(strings.NewReader(header+body.String())))

	vertices := p.Element("vertex")
	require.Len(t, vertices.rows, 1)
	assert.Equal(t, []plyValue{{scalar: 1}, {scalar: 2}, {scalar: 3}}, vertices.rows[0])

	faces := p.Element("face")
	assert.Equal(t, []float64{0, 1, 2}, faces.rows[0][0].list)
}

func TestPLYParserScalarTypes(t *testing.T) {
	tests := []struct {
		name string
		size int
		intT bool
	}{
		{"char", 1, true},
		{"uchar", 1, true},
		{"short", 2, true},
		{"ushort", 2, true},
		{"int", 4, true},
		{"uint", 4, true},
		{"float", 4, false},
		{"double", 8, false},
	}

	for _, test := range tests {
		scalar, err := scalarTypeFromName(test.name)
		require.NoError(t, err)
		assert.Equal(t, test.size, scalar.size(), test.name)
		assert.Equal(t, test.intT, scalar.integer(), test.name)
	}

	_, err := scalarTypeFromName("half")
	assert.ErrorIs(t, err, errUnknownScalarType)
}
