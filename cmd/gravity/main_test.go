// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/devblok/gravity/core"
	qt "github.com/frankban/quicktest"
)

func tempDir(c *qt.C) string {
	dir, err := ioutil.TempDir("", "gravitytest")
	c.Assert(err, qt.IsNil)
	return dir
}

func TestRealMainReturnsRunError(t *testing.T) {
	c := qt.New(t)
	dir := tempDir(c)
	defer os.RemoveAll(dir)

	memProfile := filepath.Join(dir, "mem.prof")
	cpuProfile := filepath.Join(dir, "cpu.prof")
	err := realMain([]string{"-memprof", memProfile, "-cpuprof", cpuProfile}, func(core.Configuration) error {
		return &core.NoSuitableDeviceError{Considered: 2}
	})

	var nsd *core.NoSuitableDeviceError
	c.Assert(errors.As(err, &nsd), qt.Equals, true)
	c.Assert(nsd.Considered, qt.Equals, 2)

	for _, profile := range []string{memProfile, cpuProfile} {
		info, err := os.Stat(profile)
		c.Assert(err, qt.IsNil)
		c.Assert(info.Size() > 0, qt.Equals, true, qt.Commentf("%s", profile))
	}
}

func TestRealMainPassesConfiguration(t *testing.T) {
	c := qt.New(t)

	var got core.Configuration
	err := realMain([]string{"-vkdbg"}, func(cfg core.Configuration) error {
		got = cfg
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(got.Instance.DebugMode, qt.Equals, true)
}

func TestRealMainConfigurationErrors(t *testing.T) {
	c := qt.New(t)
	dir := tempDir(c)
	defer os.RemoveAll(dir)

	envFile := filepath.Join(dir, "broken.env")
	c.Assert(ioutil.WriteFile(envFile, []byte("GRAVITY_SCREEN_WIDTH=wide\n"), 0644), qt.IsNil)

	called := false
	run := func(core.Configuration) error {
		called = true
		return nil
	}

	err := realMain([]string{"-env", envFile}, run)
	c.Assert(err, qt.ErrorMatches, `configuration: GRAVITY_SCREEN_WIDTH: .*`)

	err = realMain([]string{"-nosuchflag"}, run)
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(called, qt.Equals, false)
}
