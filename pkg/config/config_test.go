// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package config_test

import (
	"errors"
	"flag"
	"testing"
	"time"

	"github.com/lassandro/goc8/pkg/config"
	"github.com/retroenv/retrogolib/assert"
)

func TestValidate(t *testing.T) {
	opts := config.Default()
	assert.True(t, errors.Is(opts.Validate(), config.ErrNoProgram))

	opts.Program = "pong.ch8"
	assert.NoError(t, opts.Validate())

	opts.Rate = 0
	assert.True(t, errors.Is(opts.Validate(), config.ErrRate))

	opts.Rate = config.DEFAULT_RATE
	opts.Scale = config.MAX_SCALE + 1
	assert.True(t, errors.Is(opts.Validate(), config.ErrScale))

	opts.Scale = config.DEFAULT_SCALE
	opts.Hold = -time.Second
	assert.True(t, errors.Is(opts.Validate(), config.ErrHold))

	opts.Hold = 250 * time.Millisecond
	assert.NoError(t, opts.Validate())
}

func TestSeededRandom(t *testing.T) {
	opts := config.Default()
	assert.Nil(t, opts.Random())

	opts.Seed = 42
	a, b := opts.Random(), opts.Random()

	for i := 0; i < 8; i++ {
		assert.Equal(t, a.Uint32(), b.Uint32())
	}
}

func TestAddressList(t *testing.T) {
	var list config.AddressList

	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.Var(&list, "break", "")

	err := flags.Parse([]string{"-break", "0x200", "-break", "#522"})
	assert.NoError(t, err)
	assert.Equal(t, config.AddressList{0x200, 522}, list)
	assert.Equal(t, "0x200,0x20a", list.String())

	assert.Error(t, list.Set("0x1000"))
	assert.Error(t, list.Set("nope"))
}

func TestCreateLogger(t *testing.T) {
	assert.NotNil(t, config.CreateLogger(true, false))
	assert.NotNil(t, config.CreateLogger(false, true))
}
