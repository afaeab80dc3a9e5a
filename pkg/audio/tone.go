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

// Package audio plays the buzzer while the sound timer is running.
package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

const (
	SAMPLE_RATE = 44100
	TONE_HZ     = 440
	AMPLITUDE   = 0.15
)

// Tone is an endless mono square wave in 32 bit float little endian samples.
// It produces silence while inactive. Read runs on the audio goroutine and
// SetActive on the host's, so the gate is atomic.
type Tone struct {
	active atomic.Bool
	period int
	phase  int
}

func NewTone(sampleRate, freq int) *Tone {
	return &Tone{period: max(2, sampleRate/freq)}
}

func (t *Tone) SetActive(active bool) {
	t.active.Store(active)
}

func (t *Tone) Active() bool {
	return t.active.Load()
}

func (t *Tone) Read(p []byte) (int, error) {
	n := len(p) / 4
	active := t.active.Load()

	for i := 0; i < n; i++ {
		var sample float32

		if active {
			sample = AMPLITUDE

			if t.phase >= t.period/2 {
				sample = -AMPLITUDE
			}
		}

		t.phase = (t.phase + 1) % t.period

		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sample))
	}

	return n * 4, nil
}
