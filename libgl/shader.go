package libgl

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"

	"sketch-filters/gpu"
)

var shaderMetaPattern = regexp.MustCompile(`(?m)^\/\/meta:(\w+)(.+)$`)

type shaderCacheManager struct {
	hasher hash.Hash
	// Dir holds linked program binaries; empty disables the cache.
	Dir    string
	MaxAge time.Duration
}

var ShaderCache = &shaderCacheManager{
	hasher: md5.New(),
	MaxAge: 30 * 24 * time.Hour,
}

func (cache *shaderCacheManager) Put(source string, id uint32) {
	if cache.Dir == "" {
		return
	}
	key := cache.hash(source)
	err := os.MkdirAll(cache.Dir, 0755)
	if err != nil {
		glog.Warningf("could not create shader cache directory: %v", err)
		return
	}
	file, err := os.OpenFile(filepath.Join(cache.Dir, key+".bin"), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		glog.Warningf("could not write shader cache: %v", err)
		return
	}
	defer file.Close()
	var length int32
	gl.GetProgramiv(id, gl.PROGRAM_BINARY_LENGTH, &length)
	if length == 0 {
		return
	}
	buf := make([]byte, length)
	var format uint32
	gl.GetProgramBinary(id, length, &length, &format, Pointer(buf))
	buf = buf[:length]
	if err := binary.Write(file, binary.LittleEndian, format); err != nil {
		glog.Warningf("could not write shader cache: %v", err)
		return
	}
	file.Write(buf)
}

func (cache *shaderCacheManager) hash(source string) string {
	cache.hasher.Reset()
	cache.hasher.Write([]byte(source))
	cache.hasher.Write([]byte(gl.GoStr(gl.GetString(gl.VENDOR))))
	cache.hasher.Write([]byte(gl.GoStr(gl.GetString(gl.RENDERER))))
	cache.hasher.Write([]byte(gl.GoStr(gl.GetString(gl.VERSION))))
	sum := cache.hasher.Sum(nil)
	return fmt.Sprintf("%x", sum)
}

func (cache *shaderCacheManager) Get(source string) (ok bool, buf []byte, format uint32) {
	var (
		err            error
		shaderPath     string
		shaderFile     *os.File
		shaderFileInfo os.FileInfo
	)
	if cache.Dir == "" {
		return
	}
	defer func() {
		if err != nil {
			glog.Warningf("could not read shader cache: %v", err)
		}
	}()
	key := cache.hash(source)
	shaderPath = filepath.Join(cache.Dir, key+".bin")
	shaderFileInfo, err = os.Stat(shaderPath)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
		return
	}
	if err != nil {
		return
	}
	// drivers update, so binaries expire
	if time.Since(shaderFileInfo.ModTime()) > cache.MaxAge {
		os.Remove(shaderPath)
		return
	}
	shaderFile, err = os.Open(shaderPath)
	if err != nil {
		return
	}
	defer shaderFile.Close()
	if err = binary.Read(shaderFile, binary.LittleEndian, &format); err != nil {
		return
	}
	buf, err = io.ReadAll(shaderFile)
	if err != nil {
		return
	}
	return true, buf, format
}

type program struct {
	uniformLocations map[string]int32
	glId             uint32
	name             string
	src              gpu.ProgramSource
	vertexSource     string
	fragmentSource   string
}

type ShaderProgram interface {
	gpu.Program
	Compile(vertexSource, fragmentSource string) error
	GetUniformLocation(name string) int32
	SetUniform(name string, value any)
	Source() gpu.ProgramSource
	Delete()
}

func NewProgram(src gpu.ProgramSource) ShaderProgram {
	return &program{
		name: src.String(),
		src:  src,
	}
}

func (prog *program) ID() gpu.Handle {
	return gpu.Handle(prog.glId)
}

func (prog *program) Name() string {
	return prog.name
}

func (prog *program) Source() gpu.ProgramSource {
	return prog.src
}

func (prog *program) Activate() {
	State.UseProgram(prog.glId)
}

// Compile builds and links both stages. On failure the previous program stays in use.
func (prog *program) Compile(vertexSource, fragmentSource string) error {
	for _, match := range shaderMetaPattern.FindAllStringSubmatch(fragmentSource, -1) {
		if strings.EqualFold(match[1], "name") {
			prog.name = strings.TrimSpace(match[2])
		}
	}

	combined := vertexSource + "\x00" + fragmentSource
	cached := false
	var id uint32
	if ok, buf, format := ShaderCache.Get(combined); ok {
		id = gl.CreateProgram()
		gl.ProgramBinary(id, format, Pointer(buf), int32(len(buf)))
		cached = true
	} else {
		vs, err := compileShader(vertexSource, gl.VERTEX_SHADER)
		if err != nil {
			return fmt.Errorf("%v vertex stage: %w", prog.name, err)
		}
		fs, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
		if err != nil {
			gl.DeleteShader(vs)
			return fmt.Errorf("%v fragment stage: %w", prog.name, err)
		}
		id = gl.CreateProgram()
		gl.ProgramParameteri(id, gl.PROGRAM_BINARY_RETRIEVABLE_HINT, gl.TRUE)
		gl.AttachShader(id, vs)
		gl.AttachShader(id, fs)
		gl.LinkProgram(id)
		gl.DetachShader(id, vs)
		gl.DetachShader(id, fs)
		gl.DeleteShader(vs)
		gl.DeleteShader(fs)
	}

	var ok int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		infoLog := readProgramInfoLog(id)
		gl.DeleteProgram(id)
		if cached {
			// stale binary, retry from source
			ShaderCache.Evict(combined)
			return prog.Compile(vertexSource, fragmentSource)
		}
		return fmt.Errorf("failed to link %v shader, log: %v", prog.name, infoLog)
	}

	if prog.glId != 0 {
		if State.Program == prog.glId {
			State.Program = 0
		}
		gl.DeleteProgram(prog.glId)
	}
	prog.glId = id
	prog.vertexSource = vertexSource
	prog.fragmentSource = fragmentSource
	prog.uniformLocations = map[string]int32{}

	if !cached {
		ShaderCache.Put(combined, id)
	}
	glog.V(1).Infof("compiled program %v (cached: %v)", prog.name, cached)
	return nil
}

func (cache *shaderCacheManager) Evict(source string) {
	if cache.Dir == "" {
		return
	}
	os.Remove(filepath.Join(cache.Dir, cache.hash(source)+".bin"))
}

func compileShader(source string, stage uint32) (uint32, error) {
	id := gl.CreateShader(stage)
	cStrs, free := gl.Strs(source + "\x00")
	gl.ShaderSource(id, 1, cStrs, nil)
	free()
	gl.CompileShader(id)

	var ok int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &ok)
	if ok == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(id, logLength, nil, gl.Str(log))
		gl.DeleteShader(id)
		return 0, fmt.Errorf("compile failed, log: %v", strings.TrimRight(log, "\x00"))
	}
	return id, nil
}

func readProgramInfoLog(id uint32) string {
	var logLength int32
	gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)

	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (prog *program) Delete() {
	if State.Program == prog.glId {
		State.Program = 0
	}
	gl.DeleteProgram(prog.glId)
	prog.glId = 0
}

func (prog *program) GetUniformLocation(name string) int32 {
	if location, ok := prog.uniformLocations[name]; ok {
		return location
	}

	location := gl.GetUniformLocation(prog.glId, gl.Str(name+"\x00"))
	prog.uniformLocations[name] = location

	if location == -1 {
		glog.V(1).Infof("%v shader: could not get location of %q", prog.name, name)
	}

	return location
}

func (prog *program) SetUniform(name string, value any) {
	location := prog.GetUniformLocation(name)
	if location == -1 {
		return
	}
	setProgramUniformAny(prog.glId, location, value)
}

// Uniforms resolves the locations up front; setters look them up in the cache.
func (prog *program) Uniforms(names ...string) gpu.Uniforms {
	for _, name := range names {
		prog.GetUniformLocation(name)
	}
	return uniforms{prog}
}

type uniforms struct {
	prog *program
}

func (u uniforms) Int(name string, v int32)       { u.prog.SetUniform(name, v) }
func (u uniforms) Float(name string, v float32)   { u.prog.SetUniform(name, v) }
func (u uniforms) Bool(name string, v bool)       { u.prog.SetUniform(name, v) }
func (u uniforms) Vec2(name string, v mgl32.Vec2) { u.prog.SetUniform(name, v) }

func setProgramUniformAny(prog uint32, location int32, value any) {
	for refVal := reflect.ValueOf(value); refVal.Kind() == reflect.Ptr; refVal = reflect.ValueOf(value) {
		value = refVal.Elem().Interface()
	}

	switch v := value.(type) {
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.ProgramUniform1i(prog, location, i)
	case float32:
		gl.ProgramUniform1f(prog, location, v)
	case int:
		gl.ProgramUniform1i(prog, location, int32(v))
	case int32:
		gl.ProgramUniform1i(prog, location, v)
	case uint32:
		gl.ProgramUniform1ui(prog, location, v)
	case mgl32.Vec2:
		gl.ProgramUniform2f(prog, location, v.X(), v.Y())
	case mgl32.Vec3:
		gl.ProgramUniform3f(prog, location, v.X(), v.Y(), v.Z())
	case mgl32.Vec4:
		gl.ProgramUniform4f(prog, location, v.X(), v.Y(), v.Z(), v.W())
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(prog, location, 1, false, &v[0])
	default:
		glog.Fatalf("unsupported uniform type %T", value)
	}
}
