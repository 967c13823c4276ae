// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Environment keys read by LoadConfiguration
const (
	EnvScreenWidth   = "GRAVITY_SCREEN_WIDTH"
	EnvScreenHeight  = "GRAVITY_SCREEN_HEIGHT"
	EnvShaders       = "GRAVITY_SHADERS"
	EnvShaderName    = "GRAVITY_SHADER_NAME"
	EnvShaderEntry   = "GRAVITY_SHADER_ENTRY"
	EnvDebug         = "GRAVITY_DEBUG"
	EnvEventPollMS   = "GRAVITY_EVENT_POLL_MS"
	EnvFPS           = "GRAVITY_FPS"
	EnvLogLevel      = "GRAVITY_LOG_LEVEL"
	EnvDeviceExtList = "GRAVITY_DEVICE_EXTENSIONS"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Instance InstanceConfiguration
	Renderer RendererConfiguration

	LogLevel log.Level
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the window event polling interval in milliseconds
	EventPollDelay int
}

// InstanceConfiguration is used to configure the API instance
type InstanceConfiguration struct {
	DebugMode bool
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	// Shaders is a directory or a .kar archive
	Shaders     string
	ShaderName  string
	ShaderEntry string
}

// DefaultConfiguration returns the settings used when nothing is configured
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  8,
		},
		Renderer: RendererConfiguration{
			ScreenWidth:  800,
			ScreenHeight: 600,
			Shaders:      "shaders",
			ShaderName:   "triangle",
			ShaderEntry:  "main",
		},
		LogLevel: log.InfoLevel,
	}
}

// LoadConfiguration builds a configuration from the defaults, then the given
// dotenv files and finally the process environment, later sources winning.
func LoadConfiguration(files ...string) (Configuration, error) {
	cfg := DefaultConfiguration()

	fromFiles := map[string]string{}
	if len(files) > 0 {
		values, err := godotenv.Read(files...)
		if err != nil {
			return cfg, fmt.Errorf("reading %s: %s", strings.Join(files, ", "), err)
		}
		fromFiles = values
	}

	lookup := func(key string) string {
		return envy.Get(key, fromFiles[key])
	}

	var err error
	if cfg.Renderer.ScreenWidth, err = parseUint32(EnvScreenWidth, lookup(EnvScreenWidth), cfg.Renderer.ScreenWidth); err != nil {
		return cfg, err
	}
	if cfg.Renderer.ScreenHeight, err = parseUint32(EnvScreenHeight, lookup(EnvScreenHeight), cfg.Renderer.ScreenHeight); err != nil {
		return cfg, err
	}
	if cfg.Time.EventPollDelay, err = parseInt(EnvEventPollMS, lookup(EnvEventPollMS), cfg.Time.EventPollDelay); err != nil {
		return cfg, err
	}
	if cfg.Time.FramesPerSecond, err = parseInt(EnvFPS, lookup(EnvFPS), cfg.Time.FramesPerSecond); err != nil {
		return cfg, err
	}

	if v := lookup(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %s", EnvDebug, err)
		}
		cfg.Instance.DebugMode = debug
	}

	if v := lookup(EnvLogLevel); v != "" {
		level, err := log.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %s", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	if v := lookup(EnvShaders); v != "" {
		cfg.Renderer.Shaders = v
	}
	if v := lookup(EnvShaderName); v != "" {
		cfg.Renderer.ShaderName = v
	}
	if v := lookup(EnvShaderEntry); v != "" {
		cfg.Renderer.ShaderEntry = v
	}
	if v := lookup(EnvDeviceExtList); v != "" {
		for _, ext := range strings.Split(v, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				cfg.Renderer.DeviceExtensions = append(cfg.Renderer.DeviceExtensions, ext)
			}
		}
	}

	return cfg, nil
}

func parseInt(key, value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def, fmt.Errorf("%s: %s", key, err)
	}
	if n < 0 {
		return def, fmt.Errorf("%s: negative value %d", key, n)
	}
	return n, nil
}

func parseUint32(key, value string, def uint32) (uint32, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return def, fmt.Errorf("%s: %s", key, err)
	}
	return uint32(n), nil
}
