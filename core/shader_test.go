// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/core/drivertest"
	"github.com/devblok/kiln/gfx"
	"github.com/devblok/kiln/utility/kar"
)

func TestValidateBytecode(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		about string
		code  []byte
		err   string
	}{{
		about: "valid",
		code:  spirv(0x00020011, 0x00000001),
	}, {
		about: "header only",
		code:  spirv(),
	}, {
		about: "empty",
		code:  nil,
		err:   "empty bytecode",
	}, {
		about: "unaligned",
		code:  append(spirv(1), 0),
		err:   "bytecode length 25 is not a multiple of 4",
	}, {
		about: "short",
		code:  spirv()[:8],
		err:   "bytecode length 8 is shorter than the module header",
	}, {
		about: "big endian magic",
		code:  append([]byte{0x07, 0x23, 0x02, 0x03}, spirv()[4:]...),
		err:   "bad magic number 0x03022307",
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			err := core.ValidateBytecode(test.code)
			if test.err == "" {
				c.Assert(err, qt.IsNil)
				return
			}
			c.Assert(err, qt.ErrorMatches, test.err)
		})
	}
}

func TestSliceUint32(t *testing.T) {
	c := qt.New(t)

	c.Assert(core.SliceUint32([]byte{0x03, 0x02, 0x23, 0x07, 0x01, 0x00, 0x00, 0x00, 0xff}), qt.DeepEquals, []uint32{core.SpirvMagic, 1})
	c.Assert(core.SliceUint32(nil), qt.HasLen, 0)

	// Words are copied, not aliased.
	data := spirv(42)
	words := core.SliceUint32(data)
	data[20] = 0
	c.Assert(words[5], qt.Equals, uint32(42))
}

func TestParseShaderName(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		file  string
		name  string
		stage gfx.ShaderStage
		ok    bool
	}{
		{file: "triangle.vert.spv", name: "triangle", stage: gfx.ShaderStageVertex, ok: true},
		{file: "shaders/triangle.frag.spv", name: "triangle", stage: gfx.ShaderStageFragment, ok: true},
		{file: "hull.tesc.spv", name: "hull", stage: gfx.ShaderStageTessellationControl, ok: true},
		{file: "domain.tese.spv", name: "domain", stage: gfx.ShaderStageTessellationEvaluation, ok: true},
		{file: "lines.geom.spv", name: "lines", stage: gfx.ShaderStageGeometry, ok: true},
		{file: "triangle.comp.spv"},
		{file: "triangle.vert"},
		{file: ".vert.spv"},
		{file: "a.b.vert.spv"},
	}
	for _, test := range tests {
		name, stage, ok := core.ParseShaderName(test.file)
		c.Check(ok, qt.Equals, test.ok, qt.Commentf("%s", test.file))
		c.Check(name, qt.Equals, test.name, qt.Commentf("%s", test.file))
		c.Check(stage, qt.Equals, test.stage, qt.Commentf("%s", test.file))
	}
}

func TestShadersFromDirectory(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	c.Assert(os.Mkdir(filepath.Join(dir, "nested"), 0755), qt.IsNil)
	files := map[string][]byte{
		"tri.vert.spv":        spirv(1),
		"nested/tri.frag.spv": spirv(2),
		"README":              []byte("not a shader"),
		"tri.comp.spv":        spirv(3),
	}
	for name, data := range files {
		c.Assert(ioutil.WriteFile(filepath.Join(dir, name), data, 0644), qt.IsNil)
	}

	shaders, err := core.ShadersFromDirectory(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(shaders, qt.DeepEquals, []core.ShaderCode{
		{Name: "tri", Stage: gfx.ShaderStageFragment, Code: spirv(2)},
		{Name: "tri", Stage: gfx.ShaderStageVertex, Code: spirv(1)},
	})

	loaded, err := core.LoadShaders(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.DeepEquals, shaders)

	_, err = core.ShadersFromDirectory(filepath.Join(dir, "missing"))
	c.Assert(err, qt.ErrorMatches, "walking shader directory .*")
}

func TestShadersFromArchive(t *testing.T) {
	c := qt.New(t)

	builder, err := kar.NewBuilder(kar.Header{Author: "test"})
	c.Assert(err, qt.IsNil)
	defer builder.Close()
	c.Assert(builder.Add("tri.vert.spv", spirv(1)), qt.IsNil)
	c.Assert(builder.Add("tri.frag.spv", spirv(2)), qt.IsNil)
	c.Assert(builder.Add("notes.txt", []byte("skipped")), qt.IsNil)

	path := filepath.Join(c.TempDir(), "shaders"+kar.Extension)
	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(ioutil.WriteFile(path, buf.Bytes(), 0644), qt.IsNil)

	shaders, err := core.LoadShaders(path)
	c.Assert(err, qt.IsNil)
	c.Assert(shaders, qt.DeepEquals, []core.ShaderCode{
		{Name: "tri", Stage: gfx.ShaderStageFragment, Code: spirv(2)},
		{Name: "tri", Stage: gfx.ShaderStageVertex, Code: spirv(1)},
	})
}

func TestLoadShaderModule(t *testing.T) {
	c := qt.New(t)

	d := drivertest.New()
	_, device := newDevice(c, d)

	module, err := core.LoadShaderModule(device, spirv(7, 8), gfx.ShaderStageVertex)
	c.Assert(err, qt.IsNil)
	c.Assert(module.Stage, qt.Equals, gfx.ShaderStageVertex)
	c.Assert(d.ShaderCode, qt.DeepEquals, [][]uint32{{core.SpirvMagic, 0x00010000, 0, 1, 0, 7, 8}})
	module.Destroy()
	module.Destroy()
	c.Assert(d.Live(drivertest.KindShaderModule), qt.Equals, 0)

	_, err = core.LoadShaderModule(device, []byte{1, 2, 3}, gfx.ShaderStageFragment)
	c.Assert(err, qt.ErrorIs, core.ErrInvalidBytecode)
	c.Assert(err, qt.ErrorMatches, "load frag shader: bytecode length 3 is not a multiple of 4")
	c.Assert(d.Calls("CreateShaderModule"), qt.Equals, 1)

	d.Fail("CreateShaderModule", 0, nil)
	_, err = core.LoadShaderModule(device, spirv(), gfx.ShaderStageFragment)
	c.Assert(err, qt.ErrorIs, core.ErrInvalidBytecode)
	c.Assert(d.Violations, qt.IsNil)
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}
