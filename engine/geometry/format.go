package geometry

import "fmt"

// VertexFormat describes how the floats of a vertex are interleaved.
type VertexFormat uint8

const (
	// position vec3, color vec3
	FormatPositionColor VertexFormat = iota
	// position vec3, color vec3, normal vec3, texCoord vec2
	FormatPositionColorNormalUV
)

// Shader input locations shared by every format.
const (
	LocationPosition uint32 = 0
	LocationColor    uint32 = 1
	LocationNormal   uint32 = 2
	LocationTexCoord uint32 = 3
)

const floatSize = 4

/**
 * @brief A single vertex attribute of an interleaved format.
 */
type Attribute struct {
	/** @brief The shader input location. */
	Location uint32
	/** @brief The number of float components (2 or 3). */
	Components uint32
	/** @brief The offset of the attribute from the start of the vertex, in floats. */
	Offset uint32
}

// OffsetBytes is the attribute offset in bytes.
func (a Attribute) OffsetBytes() uint32 {
	return a.Offset * floatSize
}

// Stride returns the number of floats per vertex.
func (f VertexFormat) Stride() int {
	switch f {
	case FormatPositionColor:
		return 6
	case FormatPositionColorNormalUV:
		return 11
	}
	return 0
}

// StrideBytes returns the size of one vertex in bytes.
func (f VertexFormat) StrideBytes() uint32 {
	return uint32(f.Stride() * floatSize)
}

func (f VertexFormat) HasNormal() bool {
	return f == FormatPositionColorNormalUV
}

func (f VertexFormat) HasTexCoord() bool {
	return f == FormatPositionColorNormalUV
}

// Attributes returns the layout in location order.
func (f VertexFormat) Attributes() []Attribute {
	attrs := []Attribute{
		{Location: LocationPosition, Components: 3, Offset: 0},
		{Location: LocationColor, Components: 3, Offset: 3},
	}
	if f == FormatPositionColorNormalUV {
		attrs = append(attrs,
			Attribute{Location: LocationNormal, Components: 3, Offset: 6},
			Attribute{Location: LocationTexCoord, Components: 2, Offset: 9},
		)
	}
	return attrs
}

func (f VertexFormat) String() string {
	switch f {
	case FormatPositionColor:
		return "position_color"
	case FormatPositionColorNormalUV:
		return "position_color_normal_uv"
	}
	return fmt.Sprintf("VertexFormat(%d)", uint8(f))
}
