// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ota

import (
	log "github.com/sirupsen/logrus"
)

// LogCallbacks reports update progress through the logger.
func LogCallbacks() Callbacks {
	lastPct := int64(-1)
	return Callbacks{
		OnStart: func(c Command) {
			lastPct = -1
			log.Printf("ota: start updating %s", c)
		},
		OnEnd: func() {
			log.Println("ota: end")
		},
		OnProgress: func(done, total int64) {
			if total <= 0 {
				log.Debugf("ota: received %d bytes", done)
				return
			}
			pct := done * 100 / total
			if pct != lastPct {
				lastPct = pct
				log.Debugf("ota: progress %d%%", pct)
			}
		},
		OnError: func(e *Error) {
			log.Errorf("ota: error[%d]: %v", int(e.Kind), e)
		},
	}
}
