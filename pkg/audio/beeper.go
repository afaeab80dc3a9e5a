//go:build !headless

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

package audio

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
)

type Beeper struct {
	*Tone

	ctx    *oto.Context
	player *oto.Player
}

// NewBeeper opens the audio device and starts streaming a silent tone.
func NewBeeper() (*Beeper, error) {
	options := &oto.NewContextOptions{
		SampleRate:   SAMPLE_RATE,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(options)

	if err != nil {
		return nil, fmt.Errorf("Failed to open audio device: %w", err)
	}

	<-ready

	tone := NewTone(SAMPLE_RATE, TONE_HZ)
	player := ctx.NewPlayer(tone)
	player.Play()

	return &Beeper{Tone: tone, ctx: ctx, player: player}, nil
}

func (b *Beeper) Close() error {
	b.SetActive(false)
	return b.player.Close()
}
