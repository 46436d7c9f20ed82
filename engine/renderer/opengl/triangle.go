package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/spaghettifunk/hellorift/engine/math"
)

const triangleVertexShader = `
#version 410 core
layout(location = 0) in vec3 a_position;
layout(location = 1) in vec3 a_colour;
uniform mat4 u_mvp;
out vec3 v_colour;
void main() {
	v_colour = a_colour;
	gl_Position = u_mvp * vec4(a_position, 1.0);
}
` + "\x00"

const triangleFragmentShader = `
#version 410 core
in vec3 v_colour;
out vec4 o_colour;
void main() {
	o_colour = vec4(v_colour, 1.0);
}
` + "\x00"

// TriangleProgram draws a single coloured triangle one unit down the -z
// axis of its model space.
type TriangleProgram struct {
	program uint32
	vao     uint32
	vbo     uint32
	mvpLoc  int32
}

func NewTriangleProgram() (*TriangleProgram, error) {
	program, err := linkProgram(triangleVertexShader, triangleFragmentShader)
	if err != nil {
		return nil, err
	}
	t := &TriangleProgram{
		program: program,
		mvpLoc:  gl.GetUniformLocation(program, gl.Str("u_mvp\x00")),
	}

	// position, colour
	vertices := []float32{
		-1.5, -1.5, -1.0, 1.0, 0.2, 0.2,
		1.5, 1.0, -1.0, 0.2, 1.0, 0.2,
		1.0, 1.5, -1.0, 0.2, 0.2, 1.0,
	}
	gl.GenVertexArrays(1, &t.vao)
	gl.BindVertexArray(t.vao)
	gl.GenBuffers(1, &t.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, t.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*4, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*4, 3*4)
	gl.BindVertexArray(0)

	return t, nil
}

// Draw renders the triangle with the combined projection × view × model matrix.
func (t *TriangleProgram) Draw(mvp math.Mat4) {
	gl.Enable(gl.DEPTH_TEST)
	gl.UseProgram(t.program)
	gl.UniformMatrix4fv(t.mvpLoc, 1, false, &mvp.Data[0])
	gl.BindVertexArray(t.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func (t *TriangleProgram) Destroy() {
	if t.vbo != 0 {
		gl.DeleteBuffers(1, &t.vbo)
		t.vbo = 0
	}
	if t.vao != 0 {
		gl.DeleteVertexArrays(1, &t.vao)
		t.vao = 0
	}
	if t.program != 0 {
		gl.DeleteProgram(t.program)
		t.program = 0
	}
}

func linkProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile %v: %v", source, log)
	}
	return shader, nil
}
