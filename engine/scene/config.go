package scene

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
)

var ErrInvalidScene = errors.New("invalid scene")

// Shape kinds accepted in [[shapes]].
const (
	KindSphere = "sphere"
	KindCube   = "cube"
)

// Used when a sphere omits sectors or stacks.
const DefaultSphereDivisions = 30

type Vec3 [3]float32

func (v Vec3) ToVec3() math.Vec3 {
	return math.NewVec3(v[0], v[1], v[2])
}

type Window struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	X      uint32 `toml:"x"`
	Y      uint32 `toml:"y"`
}

type Camera struct {
	Position Vec3 `toml:"position"`
	Target   Vec3 `toml:"target"`
	Up       Vec3 `toml:"up"`
	// Vertical field of view in degrees.
	Fov  float32 `toml:"fov"`
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`
}

type Render struct {
	ClearColor    Vec3 `toml:"clear_color"`
	CullBackFaces bool `toml:"cull_back_faces"`
	Wireframe     bool `toml:"wireframe"`
}

type Ground struct {
	Enabled  bool    `toml:"enabled"`
	Size     float32 `toml:"size"`
	Segments int     `toml:"segments"`
	Color    Vec3    `toml:"color"`
}

// ShapeSpec is one [[shapes]] entry. Radius, sectors and stacks apply to
// spheres, size to cubes.
type ShapeSpec struct {
	Name     string  `toml:"name"`
	Kind     string  `toml:"kind"`
	Radius   float32 `toml:"radius,omitempty"`
	Sectors  int     `toml:"sectors,omitempty"`
	Stacks   int     `toml:"stacks,omitempty"`
	Size     float32 `toml:"size,omitempty"`
	Color    Vec3    `toml:"color"`
	Position Vec3    `toml:"position"`
	// Euler angles in degrees.
	Rotation Vec3 `toml:"rotation"`
	Scale    Vec3 `toml:"scale"`
}

type Config struct {
	Window Window      `toml:"window"`
	Camera Camera      `toml:"camera"`
	Render Render      `toml:"render"`
	Ground Ground      `toml:"ground"`
	Shapes []ShapeSpec `toml:"shapes"`
}

var (
	red    = Vec3{1.0, 0.0, 0.0}
	green  = Vec3{0.0, 1.0, 0.0}
	blue   = Vec3{0.0, 0.0, 1.0}
	yellow = Vec3{1.0, 1.0, 0.0}
	orange = Vec3{1.0, 0.5, 0.0}
	unit   = Vec3{1.0, 1.0, 1.0}
)

func sphere(name string, color, position Vec3) ShapeSpec {
	return ShapeSpec{
		Name:     name,
		Kind:     KindSphere,
		Radius:   1.0,
		Sectors:  DefaultSphereDivisions,
		Stacks:   DefaultSphereDivisions,
		Color:    color,
		Position: position,
		Scale:    unit,
	}
}

func cube(name string, size float32, color, position Vec3) ShapeSpec {
	return ShapeSpec{
		Name:     name,
		Kind:     KindCube,
		Size:     size,
		Color:    color,
		Position: position,
		Scale:    unit,
	}
}

// Default returns the built-in demo scene: a green ground, five cubes and
// five unit spheres seen from (0, 5, 15).
func Default() *Config {
	cfg := base()
	cfg.Shapes = []ShapeSpec{
		cube("cube_red", 1.0, red, Vec3{9.0, 2.0, -1.0}),
		cube("cube_green", 1.5, green, Vec3{-1.0, 0.6, 2.0}),
		cube("cube_blue", 0.5, blue, Vec3{-3.0, 4.0, 2.0}),
		cube("cube_yellow", 2.0, yellow, Vec3{2.0, 3.0, 4.0}),
		cube("cube_orange", 1.2, orange, Vec3{-5.0, 2.0, 5.0}),
		sphere("sphere_red", red, Vec3{6.0, 2.0, -1.0}),
		sphere("sphere_green", green, Vec3{1.0, 1.0, 2.0}),
		sphere("sphere_blue", blue, Vec3{-3.0, 4.0, 2.0}),
		sphere("sphere_yellow", yellow, Vec3{3.0, 3.0, 4.0}),
		sphere("sphere_orange", orange, Vec3{-5.0, 2.0, 5.0}),
	}
	return cfg
}

// base holds every default except the shapes.
func base() *Config {
	ground := geometry.DefaultGround()
	return &Config{
		Window: Window{
			Title:  "orbis",
			Width:  800,
			Height: 600,
			X:      100,
			Y:      100,
		},
		Camera: Camera{
			Position: Vec3{0.0, 5.0, 15.0},
			Target:   Vec3{0.0, 0.0, 0.0},
			Up:       Vec3{0.0, 1.0, 0.0},
			Fov:      45.0,
			Near:     0.1,
			Far:      100.0,
		},
		Render: Render{
			ClearColor:    Vec3{0.2, 0.3, 0.3},
			CullBackFaces: true,
		},
		Ground: Ground{
			Enabled:  true,
			Size:     ground.Size,
			Segments: ground.Segments,
			Color:    Vec3{ground.Color.X, ground.Color.Y, ground.Color.Z},
		},
	}
}

/**
 * @brief Decodes a TOML scene. Sections missing from the document keep
 * their defaults, the shape list starts empty. Unknown keys are rejected.
 */
func Decode(data []byte) (*Config, error) {
	cfg := base()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", ErrInvalidScene, row, col, derr.Error())
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidScene, strings.TrimSpace(serr.String()))
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and decodes the scene at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read scene %s: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	cfg, err := Decode(data)
	if err != nil {
		err = fmt.Errorf("scene %s: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	core.LogInfo("Scene %s loaded with %d shapes.", path, len(cfg.Shapes))
	return cfg, nil
}

// Encode renders the scene as TOML.
func Encode(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// Save writes the scene to path as TOML.
func Save(cfg *Config, path string) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyDefaults() {
	for i := range c.Shapes {
		s := &c.Shapes[i]
		s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
		if s.Name == "" {
			s.Name = fmt.Sprintf("%s-%s", s.Kind, uuid.NewString())
		}
		if s.Scale == (Vec3{}) {
			s.Scale = unit
		}
		if s.Kind != KindSphere {
			continue
		}
		if s.Sectors == 0 {
			core.LogWarn("shape '%s' has no sectors, using %d", s.Name, DefaultSphereDivisions)
			s.Sectors = DefaultSphereDivisions
		}
		if s.Stacks == 0 {
			core.LogWarn("shape '%s' has no stacks, using %d", s.Name, DefaultSphereDivisions)
			s.Stacks = DefaultSphereDivisions
		}
	}
}

// Validate checks every section. Errors wrap ErrInvalidScene, shape
// parameter errors also wrap geometry.ErrInvalidShape.
func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidScene, c.Window.Width, c.Window.Height)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return fmt.Errorf("%w: camera fov %v must be in (0, 180)", ErrInvalidScene, c.Camera.Fov)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: camera clip planes near=%v far=%v", ErrInvalidScene, c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.Position == c.Camera.Target {
		return fmt.Errorf("%w: camera position equals its target", ErrInvalidScene)
	}
	if c.Camera.Up == (Vec3{}) {
		return fmt.Errorf("%w: camera up vector is zero", ErrInvalidScene)
	}
	// the look-at basis is cross(forward, up), undefined when they are parallel
	forward := c.Camera.Target.ToVec3().Sub(c.Camera.Position.ToVec3())
	up := c.Camera.Up.ToVec3()
	if forward.Cross(up).LengthSquared() <= 1e-12*forward.LengthSquared()*up.LengthSquared() {
		return fmt.Errorf("%w: camera up %v is parallel to the view direction", ErrInvalidScene, c.Camera.Up)
	}
	if err := validateColor("render.clear_color", c.Render.ClearColor); err != nil {
		return err
	}
	if c.Ground.Enabled {
		if _, err := c.GroundShape(); err != nil {
			return fmt.Errorf("%w: ground: %w", ErrInvalidScene, err)
		}
	}

	names := make(map[string]int, len(c.Shapes))
	for i, s := range c.Shapes {
		if prev, ok := names[s.Name]; ok {
			return fmt.Errorf("%w: shapes %d and %d are both named '%s'", ErrInvalidScene, prev, i, s.Name)
		}
		names[s.Name] = i
		if _, err := s.Shape(); err != nil {
			return fmt.Errorf("%w: shape %d (%s): %w", ErrInvalidScene, i, s.Name, err)
		}
	}
	return nil
}

func validateColor(field string, c Vec3) error {
	for _, v := range c {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s %v has components outside [0, 1]", ErrInvalidScene, field, c)
		}
	}
	return nil
}

// GroundShape returns the plane parameters of the ground.
func (c *Config) GroundShape() (geometry.Shape, error) {
	p := geometry.PlaneParams{
		Size:     c.Ground.Size,
		Segments: c.Ground.Segments,
		Color:    c.Ground.Color.ToVec3(),
	}
	if err := validateColor("ground.color", c.Ground.Color); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Shape converts the TOML entry into validated generator parameters.
func (s ShapeSpec) Shape() (geometry.Shape, error) {
	if err := validateColor("color", s.Color); err != nil {
		return nil, err
	}
	var shape geometry.Shape
	switch s.Kind {
	case KindSphere:
		p := geometry.SphereParams{Radius: s.Radius, Sectors: s.Sectors, Stacks: s.Stacks, Color: s.Color.ToVec3()}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		shape = p
	case KindCube:
		p := geometry.CubeParams{Size: s.Size, Color: s.Color.ToVec3()}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		shape = p
	default:
		return nil, fmt.Errorf("%w: unknown shape kind '%s'", ErrInvalidScene, s.Kind)
	}
	return shape, nil
}

// Transform builds the placement of the shape. Rotation is given in degrees.
func (s ShapeSpec) Transform() *math.Transform {
	rotation := math.NewVec3(
		math.DegToRad(s.Rotation[0]),
		math.DegToRad(s.Rotation[1]),
		math.DegToRad(s.Rotation[2]),
	)
	return math.TransformFromPositionRotationScale(s.Position.ToVec3(), rotation, s.Scale.ToVec3())
}
