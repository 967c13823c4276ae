// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/devblok/gravity/utility/kar"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
)

const (
	shaderSuffix  = ".spv"
	archiveSuffix = ".kar"
)

// ErrShaderFormat is returned when bytecode can not be SPIR-V
var ErrShaderFormat = errors.New("shader bytecode size is not a non-zero multiple of 4")

// ShaderSet is a vertex and fragment shader pair, handed to
// pipeline creation as is
type ShaderSet struct {
	Name     string
	Vertex   []byte
	Fragment []byte
}

// ShaderFileName returns the file name of a compiled shader,
// the first part is always the name of the shader, second is type,
// and the last one ensures that the shader is compiled.
func ShaderFileName(name string, shaderType ShaderType) string {
	return name + "." + shaderType.String() + shaderSuffix
}

// ParseShaderFileName reverses ShaderFileName, the name must not
// contain more than two dots
func ParseShaderFileName(fileName string) (string, ShaderType) {
	if !strings.HasSuffix(fileName, shaderSuffix) {
		return "", UnknownShaderType
	}
	nodes := strings.Split(strings.TrimSuffix(fileName, shaderSuffix), ".")
	if len(nodes) != 2 {
		return "", UnknownShaderType
	}
	switch nodes[1] {
	case "vert":
		return nodes[0], VertexShaderType
	case "frag":
		return nodes[0], FragmentShaderType
	default:
		return "", UnknownShaderType
	}
}

// LoadShaders loads the named shader set from a kar archive
// if location ends with .kar, otherwise from a directory
func LoadShaders(location, name string) (ShaderSet, error) {
	if strings.HasSuffix(location, archiveSuffix) {
		return LoadShaderArchive(location, name)
	}
	return LoadShaderDirectory(location, name)
}

// LoadShadersWithFallback loads the named shader set like LoadShaders, but
// reads it from box when location does not exist on disk
func LoadShadersWithFallback(location, name string, box packr.Box) (ShaderSet, error) {
	if _, err := os.Stat(location); os.IsNotExist(err) {
		log.WithFields(log.Fields{
			"location": location,
			"box":      box.Path,
		}).Debug("shader location missing, using built-in shaders")
		return LoadShaderBox(box, name)
	}
	return LoadShaders(location, name)
}

// LoadShaderDirectory loads the named shader set from dir
func LoadShaderDirectory(dir, name string) (ShaderSet, error) {
	return loadShaderSet(name, func(file string) ([]byte, error) {
		return ioutil.ReadFile(filepath.Join(dir, file))
	})
}

// LoadShaderArchive loads the named shader set from a kar archive
func LoadShaderArchive(path, name string) (ShaderSet, error) {
	ar, err := kar.OpenFile(path)
	if err != nil {
		return ShaderSet{}, fmt.Errorf("opening %s: %s", path, err)
	}
	defer ar.Close()

	return loadShaderSet(name, ar.ReadAll)
}

// LoadShaderBox loads the named shader set from a packr box
func LoadShaderBox(box packr.Box, name string) (ShaderSet, error) {
	return loadShaderSet(name, box.Find)
}

func loadShaderSet(name string, read func(string) ([]byte, error)) (ShaderSet, error) {
	set := ShaderSet{Name: name}
	for _, shader := range []struct {
		shaderType ShaderType
		dst        *[]byte
	}{
		{VertexShaderType, &set.Vertex},
		{FragmentShaderType, &set.Fragment},
	} {
		file := ShaderFileName(name, shader.shaderType)
		data, err := read(file)
		if err != nil {
			return ShaderSet{}, fmt.Errorf("loading %s: %s", file, err)
		}
		if len(data) == 0 || len(data)%4 != 0 {
			return ShaderSet{}, fmt.Errorf("loading %s: %w", file, ErrShaderFormat)
		}
		*shader.dst = data
	}

	log.WithFields(log.Fields{
		"shader":   name,
		"vertex":   len(set.Vertex),
		"fragment": len(set.Fragment),
	}).Debug("shader set loaded")
	return set, nil
}

// ListShaderDirectory returns the names of every complete shader set in dir
func ListShaderDirectory(dir string) ([]string, error) {
	found := map[string]int{}
	if err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() {
			return nil
		}
		if name, shaderType := ParseShaderFileName(f.Name()); shaderType != UnknownShaderType {
			found[name] |= 1 << uint(shaderType)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var names []string
	for name, types := range found {
		if types == 1<<uint(VertexShaderType)|1<<uint(FragmentShaderType) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
