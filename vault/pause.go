// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
)

// Pause limits, in seconds
const (
	MaxPauseWindowDuration  uint64 = 270 * 24 * 60 * 60
	MaxBufferPeriodDuration uint64 = 90 * 24 * 60 * 60
)

// configurePause fixes the pause window and buffer period relative to now.
func configurePause(s slotStore, now, pauseWindow, bufferPeriod uint64) error {
	if pauseWindow > MaxPauseWindowDuration {
		return errcode.ErrMaxPauseWindowDuration
	}
	if bufferPeriod > MaxBufferPeriodDuration {
		return errcode.ErrMaxBufferPeriodDuration
	}
	windowEnd := now + pauseWindow
	setUint64(s, pauseWindowEndKey, windowEnd)
	setUint64(s, bufferPeriodEndKey, windowEnd+bufferPeriod)
	return nil
}

func pausedState(s slotStore, now uint64) PausedState {
	st := PausedState{
		PauseWindowEndTime:  getUint64(s, pauseWindowEndKey),
		BufferPeriodEndTime: getUint64(s, bufferPeriodEndKey),
	}
	// the flag lapses once the buffer period is over
	st.Paused = getBool(s, pausedKey) && now <= st.BufferPeriodEndTime
	return st
}

func (v *Vault) ensureNotPaused(tx *txn) error {
	if pausedState(tx, tx.time).Paused {
		return errcode.ErrPaused
	}
	return nil
}

// GetPausedState returns the pause flag as seen at the current block.
func (v *Vault) GetPausedState(env contract.AccessibleState) PausedState {
	return pausedState(v.reader(env), blockTime(env))
}

// SetPaused pauses or unpauses the Vault. Pausing is only possible inside
// the pause window; unpausing inside the buffer period.
func (v *Vault) SetPaused(env contract.AccessibleState, caller common.Address, paused bool) error {
	return v.execute(env, "setPaused", func(tx *txn) error {
		if err := v.authenticate(caller, v.address, ActionSetPaused); err != nil {
			return err
		}
		if paused {
			if tx.time >= getUint64(tx, pauseWindowEndKey) {
				return errcode.ErrPauseWindowExpired
			}
		} else if tx.time >= getUint64(tx, bufferPeriodEndKey) {
			return errcode.ErrBufferPeriodExpired
		}
		setBool(tx, pausedKey, paused)
		return tx.emit("PausedStateChanged", paused)
	})
}
