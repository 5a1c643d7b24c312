// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/devblok/kiln/gfx"
	"github.com/devblok/kiln/utility/kar"
)

// SpirvMagic is the first word of every SPIR-V module.
const SpirvMagic uint32 = 0x07230203

// spirvHeaderWords is the length of the SPIR-V module header.
const spirvHeaderWords = 5

const shaderSuffix = ".spv"

// ShaderCode is compiled shader bytecode for one stage.
type ShaderCode struct {
	Name  string
	Stage gfx.ShaderStage
	Code  []byte
}

// ParseShaderName splits a compiled shader file name of the form
// name.stage.spv. Stages are vert, frag, geom, tesc and tese.
func ParseShaderName(file string) (name string, stage gfx.ShaderStage, ok bool) {
	base := filepath.Base(file)
	if !strings.HasSuffix(base, shaderSuffix) {
		return "", 0, false
	}
	nodes := strings.Split(strings.TrimSuffix(base, shaderSuffix), ".")
	if len(nodes) != 2 || nodes[0] == "" {
		return "", 0, false
	}

	switch nodes[1] {
	case "vert":
		stage = gfx.ShaderStageVertex
	case "frag":
		stage = gfx.ShaderStageFragment
	case "geom":
		stage = gfx.ShaderStageGeometry
	case "tesc":
		stage = gfx.ShaderStageTessellationControl
	case "tese":
		stage = gfx.ShaderStageTessellationEvaluation
	default:
		return "", 0, false
	}
	return nodes[0], stage, true
}

// ShadersFromFiles reads every compiled shader among names with read.
// Names not following the shader naming scheme are skipped.
func ShadersFromFiles(names []string, read func(name string) ([]byte, error)) ([]ShaderCode, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var shaders []ShaderCode
	for _, file := range sorted {
		name, stage, ok := ParseShaderName(file)
		if !ok {
			continue
		}
		code, err := read(file)
		if err != nil {
			return nil, errors.Wrapf(err, "reading shader %s", file)
		}
		shaders = append(shaders, ShaderCode{
			Name:  name,
			Stage: stage,
			Code:  code,
		})
	}
	return shaders, nil
}

// ShadersFromDirectory loads the compiled shaders found in dir and its
// subdirectories.
func ShadersFromDirectory(dir string) ([]ShaderCode, error) {
	var files []string
	if err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !f.IsDir() && strings.HasSuffix(f.Name(), shaderSuffix) {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "walking shader directory %s", dir)
	}
	return ShadersFromFiles(files, ioutil.ReadFile)
}

// ShadersFromArchive loads the compiled shaders stored in a kar archive.
func ShadersFromArchive(ar *kar.Archive) ([]ShaderCode, error) {
	return ShadersFromFiles(ar.Names(), ar.ReadAll)
}

// LoadShaders loads shaders from path, which is either a directory or a
// kar archive.
func LoadShaders(path string) ([]ShaderCode, error) {
	if !strings.HasSuffix(path, kar.Extension) {
		return ShadersFromDirectory(path)
	}
	ar, err := kar.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening shader archive %s", path)
	}
	defer ar.Close()
	return ShadersFromArchive(ar)
}

// SliceUint32 repacks little endian bytes into the words shaders are
// submitted as. Trailing bytes that do not fill a word are dropped.
func SliceUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}

// ValidateBytecode checks that code is a word aligned SPIR-V module.
func ValidateBytecode(code []byte) error {
	switch {
	case len(code) == 0:
		return errors.New("empty bytecode")
	case len(code)%4 != 0:
		return errors.Newf("bytecode length %d is not a multiple of 4", len(code))
	case len(code) < spirvHeaderWords*4:
		return errors.Newf("bytecode length %d is shorter than the module header", len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != SpirvMagic {
		return errors.Newf("bad magic number %#08x", magic)
	}
	return nil
}

// ShaderModule is shader bytecode handed over to the driver.
type ShaderModule struct {
	device *Device
	handle gfx.Handle
	Stage  gfx.ShaderStage
}

// LoadShaderModule creates a shader module for stage from bytecode.
func LoadShaderModule(device *Device, bytecode []byte, stage gfx.ShaderStage) (*ShaderModule, error) {
	if err := ValidateBytecode(bytecode); err != nil {
		return nil, fail(ErrInvalidBytecode, err, "load %s shader", stage)
	}
	handle, err := device.driver().CreateShaderModule(device.handle, SliceUint32(bytecode))
	if err != nil {
		return nil, fail(ErrInvalidBytecode, err, "load %s shader", stage)
	}
	return &ShaderModule{
		device: device,
		handle: handle,
		Stage:  stage,
	}, nil
}

// Handle returns the driver handle of the module.
func (m *ShaderModule) Handle() gfx.Handle {
	return m.handle
}

// Destroy destroys the module. Pipelines built from it are unaffected.
func (m *ShaderModule) Destroy() {
	if m == nil || !m.handle.Valid() {
		return
	}
	m.device.driver().DestroyShaderModule(m.device.handle, m.handle)
	m.handle = gfx.NullHandle
}
